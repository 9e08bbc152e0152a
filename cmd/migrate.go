package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"shortlink/config"
	"shortlink/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatalf("%v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("Failed to get underlying SQL database: %v", err)
		}
		defer sqlDB.Close()

		if err := database.Migrate(db); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println("Database migrations executed successfully.")
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
