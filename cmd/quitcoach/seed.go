package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbeaudouin05/quitcoach/api/database"
	coachingdb "github.com/tbeaudouin05/quitcoach/api/services/coaching/db"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the daily coaching scripts",
	Long:  "Replace the daily coaching scripts with the bundled set, or with the JSON array in --file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		scripts, err := loadScripts(seedFile)
		if err != nil {
			return err
		}
		url, err := databaseURL()
		if err != nil {
			return err
		}
		db, err := database.Open(url)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := coachingdb.NewStore(db, nil).ReplaceScripts(cmd.Context(), scripts); err != nil {
			return err
		}
		log.Info().Int("scripts", len(scripts)).Msg("coaching scripts seeded")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "JSON file with the scripts to load")
}

func loadScripts(path string) ([]coachingdb.Script, error) {
	if path == "" {
		return coachingdb.DefaultScripts()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var scripts []coachingdb.Script
	if err := json.Unmarshal(raw, &scripts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return scripts, nil
}
