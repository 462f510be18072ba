package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/user/docchat/pkg/ragapi"
)

func init() {
	rootCmd.AddCommand(uploadCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file> [file...]",
	Short: "Upload one or more PDFs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		coord, err := newCoordinator(cfg)
		if err != nil {
			return err
		}

		files := make([]ragapi.File, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			contentType := mime.TypeByExtension(filepath.Ext(path))
			files = append(files, ragapi.File{
				Name:        filepath.Base(path),
				Size:        int64(len(data)),
				ContentType: contentType,
				Data:        data,
			})
		}

		results := coord.UploadAll(cmd.Context(), files)
		failed := 0
		for i, r := range results {
			if r.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", r.Name, r.Err)
				continue
			}
			fmt.Printf("Uploaded %s (%s)\n", r.Name, humanize.Bytes(uint64(files[i].Size)))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d uploads failed", failed, len(results))
		}
		return nil
	},
}
