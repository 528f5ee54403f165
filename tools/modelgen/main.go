// Command modelgen regenerates the gorm model for the action record table
// from a migrated Postgres database.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gen"
	"gorm.io/gorm"
)

func main() {
	var dsn, out, tables string
	flag.StringVar(&dsn, "dsn", os.Getenv("THORPLAN_DB_DSN"), "postgres dsn")
	flag.StringVar(&out, "out", "internal/adapter/repo/gorm/model", "output dir for generated models")
	flag.StringVar(&tables, "tables", "action_records", "comma separated tables to generate")
	flag.Parse()

	if dsn == "" {
		log.Fatal("missing --dsn or THORPLAN_DB_DSN")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:      out,
		ModelPkgPath: "model",
		Mode:         gen.WithoutContext,
	})
	g.UseDB(db)
	models := make([]any, 0)
	for _, name := range strings.Split(tables, ",") {
		if name = strings.TrimSpace(name); name != "" {
			models = append(models, g.GenerateModel(name))
		}
	}
	g.ApplyBasic(models...)
	g.Execute()

	fmt.Printf("generated gorm models for %s at %s\n", tables, out)
}
