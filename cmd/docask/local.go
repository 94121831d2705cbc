package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xxxsen/docask/internal/docstore"
	"github.com/xxxsen/docask/internal/relevance"
	"github.com/xxxsen/docask/internal/service"
)

const defaultDBFile = "docask.db"

// withLocalStore runs fn against the on-disk store used by the cli
// subcommands. Answers here always come from keyword search, no model
// is involved.
func withLocalStore(dbPath string, fn func(ctx context.Context, store docstore.Store) error) error {
	store, err := docstore.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	return fn(context.Background(), store)
}

func newAddCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "add <file>...",
		Short: "add documents to the local store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocalStore(dbPath, func(ctx context.Context, store docstore.Store) error {
				docs := service.NewDocumentService(store, nil)
				for _, path := range args {
					file, err := os.Open(path)
					if err != nil {
						return err
					}
					doc, err := docs.Upload(ctx, filepath.Base(path), file)
					file.Close()
					if err != nil {
						return fmt.Errorf("add %s: %w", path, err)
					}
					fmt.Printf("added %s (%s)\n", doc.Name, doc.ID)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDBFile, "path to the document database")
	return cmd
}

func newAskCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "answer a question from the stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return withLocalStore(dbPath, func(ctx context.Context, store docstore.Store) error {
				answers := service.NewAnswerService(store, nil, relevance.New(relevance.LocalConfig()), service.AnswerConfig{})
				res, err := answers.Ask(ctx, question)
				if err != nil {
					return err
				}
				fmt.Println(res.Answer)
				if len(res.Sources) > 0 {
					fmt.Println()
					fmt.Println("Sources:")
					for _, src := range res.Sources {
						fmt.Printf("  %s: %s\n", src.Document, src.Excerpt)
					}
				}
				fmt.Printf("\nconfidence: %.2f\n", res.Confidence)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDBFile, "path to the document database")
	return cmd
}

func newListCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocalStore(dbPath, func(ctx context.Context, store docstore.Store) error {
				docs, err := store.List(ctx)
				if err != nil {
					return err
				}
				if len(docs) == 0 {
					fmt.Println("no documents")
					return nil
				}
				for _, doc := range docs {
					uploaded := time.UnixMilli(doc.UploadedAt).Format("2006-01-02 15:04")
					fmt.Printf("%s  %-30s  %6d bytes  %s\n", doc.ID, doc.Name, doc.Size, uploaded)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDBFile, "path to the document database")
	return cmd
}

func newRmCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "remove documents from the local store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocalStore(dbPath, func(ctx context.Context, store docstore.Store) error {
				docs := service.NewDocumentService(store, nil)
				for _, id := range args {
					if err := docs.Delete(ctx, id); err != nil {
						return fmt.Errorf("remove %s: %w", id, err)
					}
					fmt.Printf("removed %s\n", id)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDBFile, "path to the document database")
	return cmd
}
