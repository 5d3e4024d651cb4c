package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/urfave/cli/v3"

	"github.com/ivanvanderbyl/pdftakeoff"
	"github.com/ivanvanderbyl/pdftakeoff/store"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle   = lipgloss.NewStyle().Bold(true)
)

func main() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML configuration file",
	}
	dbFlag := &cli.StringFlag{
		Name:  "db",
		Usage: "SQLite database for measurements",
		Value: "takeoff.db",
	}
	projectFlag := &cli.StringFlag{
		Name:  "project",
		Usage: "Project ID in the measurement database",
		Value: "default",
	}

	cmd := &cli.Command{
		Name:  "pdftakeoff",
		Usage: "Measure plan sheets rendered from PDF files",
		Commands: []*cli.Command{
			{
				Name:  "detect",
				Usage: "Detect lines and intersections on a page",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Input PDF file path",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number (1-indexed)",
						Value: 1,
					},
					&cli.FloatFlag{
						Name:  "zoom",
						Usage: "Render zoom level",
						Value: 1.0,
					},
					configFlag,
				},
				Action: detectLines,
			},
			{
				Name:  "replay",
				Usage: "Replay a script of measurement events and save the results",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "events",
						Aliases:  []string{"e"},
						Usage:    "YAML or JSON event script",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "PDF file used for line snapping",
					},
					configFlag,
					dbFlag,
					projectFlag,
				},
				Action: replayEvents,
			},
			{
				Name:   "totals",
				Usage:  "Print priced totals for a project",
				Flags:  []cli.Flag{dbFlag, projectFlag},
				Action: printTotals,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(cmd *cli.Command) (pdftakeoff.Config, error) {
	path := cmd.String("config")
	if path == "" {
		return pdftakeoff.DefaultConfig(), nil
	}
	return pdftakeoff.LoadConfig(path)
}

// withDocument initialises pdfium, opens the PDF and passes it to fn.
func withDocument(inputPath string, fn func(doc *pdftakeoff.Document) error) error {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise pdfium: %w", err)
	}
	defer pool.Close()

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		return fmt.Errorf("failed to get pdfium instance: %w", err)
	}

	doc, err := pdftakeoff.NewRenderer(instance).OpenFile(inputPath)
	if err != nil {
		return err
	}
	defer doc.Close()

	return fn(doc)
}

func detectLines(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	page := cmd.Int("page")
	zoom := cmd.Float("zoom")

	return withDocument(cmd.String("input"), func(doc *pdftakeoff.Document) error {
		fmt.Fprintf(os.Stderr, "Processing PDF with %d pages...\n", doc.PageCount())

		raster, err := doc.RenderPage(page, zoom)
		if err != nil {
			return err
		}
		result, err := pdftakeoff.Detect(ctx, pdftakeoff.NewDefaultDetector(config.Detection), raster, config.Detection)
		if err != nil {
			return fmt.Errorf("failed to detect lines: %w", err)
		}

		fmt.Println(headingStyle.Render(fmt.Sprintf("Page %d at zoom %.2f (%dx%d)", page, zoom, raster.Width, raster.Height)))
		printField("Lines", fmt.Sprintf("%d", len(result.Lines)))
		printField("Intersections", fmt.Sprintf("%d", len(result.Intersections)))
		printField("Duration", result.Duration.Round(time.Millisecond).String())
		for _, l := range result.Lines {
			fmt.Printf("  (%.1f, %.1f) → (%.1f, %.1f)  %6.1fpx  %5.1f°\n",
				l.Start.X, l.Start.Y, l.End.X, l.End.Y, l.Length, l.Angle)
		}
		return nil
	})
}

func replayEvents(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	events, err := pdftakeoff.LoadEvents(cmd.String("events"))
	if err != nil {
		return err
	}

	run := func(lines pdftakeoff.LineSource) error {
		session := pdftakeoff.NewSessionWithConfig(nil, config)
		if lines != nil {
			session.SetLineSource(lines)
		}

		for i, e := range events {
			res, err := session.Apply(ctx, e)
			if err != nil {
				return fmt.Errorf("event %d (%s): %w", i+1, e.Kind, err)
			}
			if res.Factor != nil {
				printField("Calibrated", fmt.Sprintf("%g %s/px", res.Factor.Value, res.Factor.Unit))
			}
		}

		measurements := session.AllMeasurements()
		fmt.Println(headingStyle.Render(fmt.Sprintf("%d measurements", len(measurements))))
		for _, m := range measurements {
			printField(fmt.Sprintf("p%d %s", m.PageNumber, m.Label), fmt.Sprintf("%.3f %s", m.Value, m.Unit))
		}

		db, err := store.Open(cmd.String("db"))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Save(ctx, cmd.String("project"), measurements)
	}

	inputPath := cmd.String("input")
	if inputPath == "" {
		return run(nil)
	}
	return withDocument(inputPath, func(doc *pdftakeoff.Document) error {
		return run(pdftakeoff.NewLineCache(doc, pdftakeoff.NewDefaultDetector(config.Detection), config))
	})
}

func printTotals(ctx context.Context, cmd *cli.Command) error {
	db, err := store.Open(cmd.String("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	measurements, err := db.Load(ctx, cmd.String("project"))
	if err != nil {
		return err
	}

	totals := pdftakeoff.ComputeTotals(measurements)
	for _, t := range totals {
		fmt.Println(headingStyle.Render(t.Category))
		for _, l := range t.Lines {
			printField(l.Label, fmt.Sprintf("%.3f %s × %.2f = %.2f", l.Quantity, l.Unit, l.UnitPrice, l.Amount))
		}
		printField("Subtotal", fmt.Sprintf("%.2f", t.Total))
	}
	fmt.Println(headingStyle.Render(fmt.Sprintf("Total %.2f", pdftakeoff.GrandTotal(totals))))
	return nil
}

func printField(label, value string) {
	fmt.Printf("  %s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}
