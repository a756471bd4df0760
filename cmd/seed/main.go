package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kasuwa/kasuwa-backend/config"
	"github.com/kasuwa/kasuwa-backend/internal/app/repository"
	"github.com/kasuwa/kasuwa-backend/internal/app/service"
	"github.com/kasuwa/kasuwa-backend/internal/db"
)

// Expected XLSX columns, first row is the header:
// 0 seller_username, 1 name_en, 2 name_fr, 3 description_en, 4 description_fr,
// 5 brand, 6 category, 7 price, 8 discount, 9 stock, 10 colors (comma
// separated), 11 condition (New/Used), 12 city, 13 image_urls (comma separated)
const minColumns = 12

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	listingRepo := repository.NewListingRepository(db.GetDB())
	productService := service.NewProductService(productRepo, listingRepo, db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, err := readCatalogRows(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total catalog rows to import: %d\n", len(rows))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	imported := 0
	skipped := 0
	for i, row := range rows {
		seller, err := userRepo.FindByIdentifier(strings.TrimSpace(row[0]))
		if err != nil {
			fmt.Printf("Row %d: unknown seller %q, skipping\n", i+2, row[0])
			skipped++
			continue
		}

		input, err := publishInputFromRow(row)
		if err != nil {
			fmt.Printf("Row %d: %v, skipping\n", i+2, err)
			skipped++
			continue
		}

		if _, err := productService.Publish(seller, input); err != nil {
			fmt.Printf("Row %d: publish failed: %v, skipping\n", i+2, err)
			skipped++
			continue
		}
		imported++
	}

	fmt.Println("Import completed.")
	fmt.Printf("Imported: %d, skipped: %d\n", imported, skipped)
}

func readCatalogRows(filePath string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var out [][]string
	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}
		if len(row) < minColumns {
			continue
		}
		out = append(out, row)
	}

	return out, nil
}

func publishInputFromRow(row []string) (service.PublishInput, error) {
	nameEN := strings.TrimSpace(row[1])
	if nameEN == "" {
		return service.PublishInput{}, fmt.Errorf("missing English name")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(row[7]), 64)
	if err != nil || price <= 0 {
		return service.PublishInput{}, fmt.Errorf("invalid price %q", row[7])
	}

	discount, _ := strconv.ParseFloat(strings.TrimSpace(row[8]), 64)

	stock, err := strconv.Atoi(strings.TrimSpace(row[9]))
	if err != nil || stock < 0 {
		return service.PublishInput{}, fmt.Errorf("invalid stock %q", row[9])
	}

	translations := []service.TranslationInput{
		{LanguageCode: "en", Name: nameEN, Description: strings.TrimSpace(row[3])},
	}
	if nameFR := strings.TrimSpace(row[2]); nameFR != "" {
		translations = append(translations, service.TranslationInput{
			LanguageCode: "fr",
			Name:         nameFR,
			Description:  strings.TrimSpace(row[4]),
		})
	}

	input := service.PublishInput{
		Translations: translations,
		Brand:        jsonText(row[5]),
		Category:     jsonText(row[6]),
		Listing: service.ListingInput{
			Price:         price,
			Discount:      discount,
			Colors:        splitList(row[10]),
			Status:        strings.TrimSpace(row[11]),
			NumberInStock: stock,
		},
	}

	if len(row) > 12 {
		input.Listing.City = strings.TrimSpace(row[12])
	}
	if len(row) > 13 {
		input.ImageURLs = splitList(row[13])
	}

	return input, nil
}

// jsonText encodes a plain spreadsheet cell as a JSON string so it survives
// the jsonb columns on products. An empty cell stays empty and defaults to
// an empty object downstream.
func jsonText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	encoded, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
