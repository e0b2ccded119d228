package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/brokerdesk-backend/internal/app"
	"github.com/yungbote/brokerdesk-backend/internal/services"
)

func main() {
	var path string
	var dryRun bool
	flag.StringVar(&path, "file", "catalog/catalog.yaml", "catalog YAML to import")
	flag.BoolVar(&dryRun, "dry-run", false, "parse the file and print counts without touching the database")
	flag.Parse()

	f, err := os.Open(path)
	if err != nil {
		fmt.Printf("open catalog: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if dryRun {
		var doc services.CatalogDocument
		if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
			fmt.Printf("decode catalog: %v\n", err)
			os.Exit(1)
		}
		items := 0
		for _, c := range doc.Categories {
			items += len(c.Items)
		}
		fmt.Printf("dry-run: %d categories, %d items\n", len(doc.Categories), items)
		return
	}

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	res, err := application.Services.Importer.Import(ctx, f)
	if err != nil {
		application.Log.Error("catalog import failed", "error", err, "file", path)
		application.Close()
		os.Exit(1)
	}
	fmt.Printf("categories created: %d, items created: %d, items updated: %d\n",
		res.CategoriesCreated, res.ItemsCreated, res.ItemsUpdated)
}
