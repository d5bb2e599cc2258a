package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type seedProduct struct {
	Nombre    string
	SKU       string
	Marca     string
	Categoria string
	Precios   [3]string
	Stock     int
	Images    []string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	catalogID := os.Getenv("CATALOG_ID")

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedProducts(db, catalogID)
	if catalogID != "" {
		seedBranding(db, catalogID)
	}

	log.Println("Seeding completed successfully!")
}

func seedProducts(db *sql.DB, catalogID string) {
	products := []seedProduct{
		{"Paleta Bullpadel Vertex 04", "BP-VX04", "Bullpadel", "Paletas de Padel", [3]string{"$120.000", "$125.000", "$130.000"}, 12, []string{"https://storage.googleapis.com/images/seed/bp-vx04.jpg"}},
		{"Paleta Nox AT10 Genius", "NX-AT10", "Nox", "Paletas de Padel", [3]string{"$135.500", "$140.000", "$145.000"}, 8, []string{"https://storage.googleapis.com/images/seed/nx-at10.jpg"}},
		{"Paleta Siux Diablo Revolution", "SX-DIAB", "Siux", "Paletas de Padel", [3]string{"$110.000", "$114.000", "$118.000"}, 0, nil},
		{"Bolso Bullpadel Paletero Hack", "BP-BOLSO1", "Bullpadel", "Bolsos y Mochilas", [3]string{"$45.000", "$48.000", "$52.000"}, 20, nil},
		{"Mochila Nox Pro Series", "NX-MOCH", "Nox", "Bolsos y Mochilas", [3]string{"$38.000", "$40.000", "$43.000"}, 15, nil},
		{"Overgrip Bullpadel GB1200 x3", "BP-OG3", "Bullpadel", "Accesorios y zapatillas", [3]string{"$1.200", "$1.500", "$1.800"}, 300, nil},
		{"Muñequera Nox Logo", "NX-MUN", "Nox", "Accesorios y zapatillas", [3]string{"$900", "$1.100", "$1.300"}, 150, nil},
		{"Zapatilla Bullpadel Hack Hybrid", "BP-ZAP-HH", "Bullpadel", "Accesorios y zapatillas", [3]string{"$70.000", "$74.000", "$78.000"}, 10, nil},
		{"Pelotas Head Padel Pro x3", "HD-PEL3", "", "Pelotas Padel", [3]string{"$6.500", "$7.000", "$7.500"}, 200, nil},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		var id string
		err := db.QueryRow(`
			INSERT INTO products (catalog_id, nombre, sku, marca, categoria, precio1, precio2, precio3, stock)
			VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (sku) DO UPDATE SET
				nombre = EXCLUDED.nombre,
				marca = EXCLUDED.marca,
				categoria = EXCLUDED.categoria,
				precio1 = EXCLUDED.precio1,
				precio2 = EXCLUDED.precio2,
				precio3 = EXCLUDED.precio3,
				stock = EXCLUDED.stock,
				updated_at = now()
			RETURNING id;
		`, catalogID, p.Nombre, p.SKU, p.Marca, p.Categoria, p.Precios[0], p.Precios[1], p.Precios[2], p.Stock).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.SKU, err)
			continue
		}
		for _, url := range p.Images {
			_, err := db.Exec(`
				INSERT INTO images (product_id, url)
				SELECT $1::uuid, $2::text
				WHERE NOT EXISTS (SELECT 1 FROM images WHERE product_id = $1::uuid AND url = $2::text);
			`, id, url)
			if err != nil {
				log.Printf("Failed to seed image for %s: %v", p.SKU, err)
			}
		}
	}
}

func seedBranding(db *sql.DB, catalogID string) {
	fmt.Println("Seeding Branding...")
	_, err := db.Exec(`
		INSERT INTO branding (catalog_id, primary_color, secondary_color)
		VALUES ($1, '#0b3d91', '#f5f5f5')
		ON CONFLICT (catalog_id) DO NOTHING;
	`, catalogID)
	if err != nil {
		log.Printf("Failed to seed branding %s: %v", catalogID, err)
	}
}
