package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tranvm/luxora/internal/config"
	"github.com/tranvm/luxora/internal/models"
)

type fixtureFile struct {
	Categories []struct {
		Name     string `yaml:"name"`
		Position uint   `yaml:"position"`
	} `yaml:"categories"`
	Colors []struct {
		Name string `yaml:"name"`
		Hex  string `yaml:"hex"`
	} `yaml:"colors"`
	Products []struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Price       string   `yaml:"price"`
		Stock       *int64   `yaml:"stock"`
		Categories  []string `yaml:"categories"`
		Colors      []string `yaml:"colors"`
		Images      []string `yaml:"images"`
	} `yaml:"products"`
}

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load catalog fixtures from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return seed(file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "fixtures/catalog.yml", "fixture file")
	return cmd
}

func seed(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fx fixtureFile
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("parse fixtures: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}

	cats := make(map[string]models.Category, len(fx.Categories))
	for _, c := range fx.Categories {
		cat := models.Category{Name: c.Name, Slug: slug.Make(c.Name), Position: c.Position}
		if err := db.Where("slug = ?", cat.Slug).FirstOrCreate(&cat).Error; err != nil {
			return err
		}
		cats[c.Name] = cat
	}

	colors := make(map[string]models.Color, len(fx.Colors))
	for _, c := range fx.Colors {
		color := models.Color{Name: c.Name, Hex: c.Hex}
		if err := db.Where("name = ?", c.Name).FirstOrCreate(&color).Error; err != nil {
			return err
		}
		colors[c.Name] = color
	}

	for _, p := range fx.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return fmt.Errorf("product %q: bad price %q: %w", p.Name, p.Price, err)
		}
		product := models.Product{
			Name:        p.Name,
			Slug:        slug.Make(p.Name),
			Description: p.Description,
			Price:       price,
			Stock:       p.Stock,
		}
		for _, name := range p.Categories {
			if cat, ok := cats[name]; ok {
				product.Categories = append(product.Categories, cat)
			}
		}
		for _, name := range p.Colors {
			if color, ok := colors[name]; ok {
				product.Colors = append(product.Colors, color)
			}
		}
		for i, url := range p.Images {
			product.Images = append(product.Images, models.ProductImage{URL: url, Position: uint(i)})
		}
		if err := db.Where("slug = ?", product.Slug).FirstOrCreate(&product).Error; err != nil {
			return err
		}
	}

	slog.Info("seed complete",
		"categories", len(fx.Categories),
		"colors", len(fx.Colors),
		"products", len(fx.Products),
	)
	return nil
}
