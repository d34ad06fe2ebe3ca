package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shorts/pkg/adapters/password"
	"github.com/wadjakorntonsri/shorts/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shorts/pkg/config"
	"github.com/wadjakorntonsri/shorts/pkg/core/domain"
	"github.com/wadjakorntonsri/shorts/pkg/core/services"
	"github.com/wadjakorntonsri/shorts/pkg/logger"
	"github.com/wadjakorntonsri/shorts/pkg/ports"
)

const usage = "expected 'export', 'import' or 'prune-sessions' subcommands"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportFile := exportCmd.String("file", "", "write JSON to this file instead of stdout")
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")
	pruneCmd := flag.NewFlagSet("prune-sessions", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg := config.Load()
	if err := logger.Init(cfg.AppEnv, cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Sync()

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to db", zap.Error(err))
	}
	defer repo.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		out := io.Writer(os.Stdout)
		if *exportFile != "" {
			f, err := os.Create(*exportFile)
			if err != nil {
				logger.Fatal("Failed to create file", zap.Error(err))
			}
			defer f.Close()
			out = f
		}
		n, err := exportLinks(ctx, repo, out)
		if err != nil {
			logger.Fatal("Export failed", zap.Error(err))
		}
		logger.Info("Exported links", zap.Int("count", n))
	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		f, err := os.Open(*importFile)
		if err != nil {
			logger.Fatal("Failed to open file", zap.Error(err))
		}
		defer f.Close()
		imported, skipped, err := importLinks(ctx, repo, f)
		if err != nil {
			logger.Fatal("Import failed", zap.Error(err))
		}
		fmt.Printf("imported %d links, skipped %d\n", imported, skipped)
	case "prune-sessions":
		_ = pruneCmd.Parse(os.Args[2:])
		accounts := services.NewAccountService(repo, password.NewBcryptHasher(cfg.BcryptCost), cfg.InviteCode)
		n, err := accounts.PruneSessions(ctx)
		if err != nil {
			logger.Fatal("Prune failed", zap.Error(err))
		}
		fmt.Printf("removed %d expired sessions\n", n)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
}

// exportLinks writes every link as an indented JSON array.
func exportLinks(ctx context.Context, repo ports.Repository, w io.Writer) (int, error) {
	links, err := repo.Dump(ctx)
	if err != nil {
		return 0, err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(links); err != nil {
		return 0, fmt.Errorf("encode: %w", err)
	}
	return len(links), nil
}

// importLinks inserts the links read from r. Shorts that already exist are
// skipped, as are entries the link rules reject. IDs are reassigned.
func importLinks(ctx context.Context, repo ports.Repository, r io.Reader) (imported, skipped int, err error) {
	var links []domain.Link
	if err := json.NewDecoder(r).Decode(&links); err != nil {
		return 0, 0, fmt.Errorf("decode: %w", err)
	}

	svc := services.NewLinkService(repo)
	for _, l := range links {
		if _, err := svc.AddLink(ctx, l.Short, l.Original); err != nil {
			if domain.IsDuplicateKey(err) || errors.Is(err, domain.ErrInvalidInput) {
				logger.Warn("Skipping link", zap.String("short", l.Short), zap.Error(err))
				skipped++
				continue
			}
			return imported, skipped, err
		}
		imported++
	}
	return imported, skipped, nil
}
