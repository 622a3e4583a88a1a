package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leadhunt-engine/internal/domain"
	"leadhunt-engine/internal/fetch"
	"leadhunt-engine/internal/intake"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file...]",
	Short: "Decode saved pages or fetched URLs into leads",
	Long:  "Reads HTML from files, --url pages or stdin and prints the decoded leads as JSON. With --store accepted leads are written to the configured store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		urls, _ := cmd.Flags().GetStringSlice("url")
		storeLeads, _ := cmd.Flags().GetBool("store")
		localeName, _ := cmd.Flags().GetString("locale")
		parallel, _ := cmd.Flags().GetInt("parallel")

		docs, err := readDocuments(ctx, args, urls, parallel)
		if err != nil {
			return err
		}

		dir, err := dataDir()
		if err != nil {
			return err
		}
		loc, _, err := loadLocale(dir, localeName)
		if err != nil {
			return err
		}

		var p *intake.Pipeline
		if storeLeads {
			st, err := openStore(ctx, dir)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			sink, err := contactSink(st)
			if err != nil {
				return err
			}
			p = newPipeline(loc, sink, nil)
		} else {
			p = newPipeline(loc, nil, nil)
		}

		results := make([]intake.Result, 0, len(docs))
		for _, doc := range docs {
			res := p.ProcessAndStore(ctx, doc)
			if res.Leads == nil {
				res.Leads = []domain.ExtractedLead{}
			}
			zap.L().Info("decode: document done",
				zap.String("url", doc.SourceURL),
				zap.Int("leads", len(res.Leads)),
				zap.Int("stored", res.StoredCount),
				zap.Int("duplicates", res.Duplicates),
				zap.Int("rejected", res.Rejected),
			)
			results = append(results, res)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	decodeCmd.Flags().StringSlice("url", nil, "page URL to fetch (repeatable)")
	decodeCmd.Flags().Bool("store", false, "store accepted leads")
	decodeCmd.Flags().String("locale", "", "built-in locale to use instead of the configured one (us, uk)")
	decodeCmd.Flags().Int("parallel", 4, "concurrent URL fetches")
	rootCmd.AddCommand(decodeCmd)
}

// readDocuments loads files, then URLs. With neither it reads stdin.
func readDocuments(ctx context.Context, files, urls []string, parallel int) ([]domain.RawDocument, error) {
	docs := make([]domain.RawDocument, 0, len(files)+len(urls))

	for _, name := range files {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", name)
		}
		docs = append(docs, domain.RawDocument{HTML: string(b), SourceURL: "file://" + name, FetchedAt: time.Now().UTC()})
	}

	if len(urls) > 0 {
		fetched, err := fetchAll(ctx, urls, parallel)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fetched...)
	}

	if len(files) == 0 && len(urls) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, eris.Wrap(err, "read stdin")
		}
		docs = append(docs, domain.RawDocument{HTML: string(b), FetchedAt: time.Now().UTC()})
	}
	return docs, nil
}

// fetchAll fetches every URL, keeping input order. One failed page does not
// stop the others.
func fetchAll(ctx context.Context, urls []string, parallel int) ([]domain.RawDocument, error) {
	f, closeFetcher := fetch.New(cfg.Fetch)
	defer closeFetcher()

	out := make([]domain.RawDocument, len(urls))
	ok := make([]bool, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, u := range urls {
		g.Go(func() error {
			doc, err := f.Fetch(gctx, u)
			if err != nil {
				zap.L().Warn("decode: fetch failed", zap.String("url", u), zap.Error(err))
				return nil
			}
			out[i], ok[i] = doc, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := out[:0]
	for i, doc := range out {
		if ok[i] {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
