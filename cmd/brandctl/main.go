package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"

	"github.com/goliatone/go-brandboard/components/dashboard"
	"github.com/goliatone/go-brandboard/pkg/apiclient"
)

type cli struct {
	Catalog  catalogCmd  `cmd:"" help:"Inspect the widget catalog."`
	Seed     seedCmd     `cmd:"" help:"Generate a starter dashboard from a template."`
	Manifest manifestCmd `cmd:"" help:"Validate or extend a widget manifest."`

	ManifestPath string `type:"path" help:"Widget manifest to load into the catalog before running."`
}

type catalogCmd struct {
	List catalogListCmd `cmd:"" default:"withargs" help:"List catalog entries."`
}

type catalogListCmd struct {
	Category string `help:"Restrict the listing to one category."`
	JSON     bool   `help:"Emit JSON instead of a table."`
}

type seedCmd struct {
	Template string `default:"marketing" help:"Template name (marketing, executive, analyst)."`
	Out      string `type:"path" help:"Write the dashboard JSON to this file instead of stdout."`
	APIURL   string `name:"api-url" help:"POST the seeded layout to a persistence API instead of printing it."`
	APIKey   string `name:"api-key" help:"Bearer token for --api-url."`
}

type manifestCmd struct {
	Validate manifestValidateCmd `cmd:"" help:"Validate a manifest file."`
	Add      manifestAddCmd      `cmd:"" help:"Append a widget entry to a manifest."`
}

type manifestValidateCmd struct {
	Path string `arg:"" type:"path" help:"Manifest file to validate."`
}

type manifestAddCmd struct {
	Path        string `arg:"" type:"path" help:"Manifest file to update (created when missing)."`
	Name        string `required:"" help:"Display name; the widget type is derived from it unless --type is set."`
	Type        string `help:"Explicit widget type slug."`
	Description string `help:"One-line description."`
	Icon        string `help:"Icon identifier for the picker."`
	Category    string `default:"analytics" help:"Picker category."`
	Width       int    `default:"6" help:"Default width in grid cells."`
	Height      int    `default:"4" help:"Default height in grid cells."`
	MinWidth    int    `name:"min-width" default:"4" help:"Minimum width in grid cells."`
	MinHeight   int    `name:"min-height" default:"3" help:"Minimum height in grid cells."`
}

func main() {
	root := &cli{}
	ctx := kong.Parse(root,
		kong.Description("Brand dashboard management utility."),
		kong.UsageOnError(),
	)
	err := ctx.Run(root)
	ctx.FatalIfErrorf(err)
}

func (root *cli) catalog() (*dashboard.Catalog, error) {
	catalog := dashboard.DefaultCatalog()
	if root.ManifestPath != "" {
		if _, err := catalog.LoadManifestFile(root.ManifestPath); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func (cmd *catalogListCmd) Run(root *cli) error {
	catalog, err := root.catalog()
	if err != nil {
		return err
	}
	entries := catalog.Entries()
	if cmd.Category != "" {
		entries = catalog.ListByCategory(dashboard.Category(cmd.Category))
	}
	if cmd.JSON {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNAME\tCATEGORY\tSIZE")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\n",
			entry.Type, entry.Name, entry.Category, entry.DefaultSize.W, entry.DefaultSize.H)
	}
	return w.Flush()
}

func (cmd *seedCmd) Run(root *cli) error {
	catalog, err := root.catalog()
	if err != nil {
		return err
	}
	board, err := dashboard.NewDashboard(catalog, dashboard.TemplateName(cmd.Template))
	if err != nil {
		return err
	}

	if cmd.APIURL != "" {
		client, err := apiclient.New(apiclient.Config{BaseURL: cmd.APIURL, APIKey: cmd.APIKey})
		if err != nil {
			return err
		}
		saved, err := client.SaveLayout(context.Background(), board.DashboardID, board.Layout)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "seeded dashboard %s with %d widgets\n", saved.DashboardID, len(saved.Layout))
		return nil
	}

	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("brandctl: encode dashboard: %w", err)
	}
	if cmd.Out == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cmd.Out), 0o755); err != nil {
		return fmt.Errorf("brandctl: mkdir %s: %w", filepath.Dir(cmd.Out), err)
	}
	return os.WriteFile(cmd.Out, data, 0o644)
}

func (cmd *manifestValidateCmd) Run(*cli) error {
	doc, err := dashboard.ReadManifest(cmd.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s: %d widgets, ok\n", cmd.Path, len(doc.Widgets))
	return nil
}

func (cmd *manifestAddCmd) Run(*cli) error {
	doc, err := loadOrInitManifest(cmd.Path)
	if err != nil {
		return err
	}

	slug := cmd.Type
	if slug == "" {
		slug = strcase.ToKebab(cmd.Name)
	}
	entry := dashboard.CatalogEntry{
		Type:        dashboard.WidgetType(slug),
		Name:        cmd.Name,
		Description: cmd.Description,
		Icon:        cmd.Icon,
		Category:    dashboard.Category(cmd.Category),
		DefaultSize: dashboard.Size{W: cmd.Width, H: cmd.Height},
		MinSize:     dashboard.Size{W: cmd.MinWidth, H: cmd.MinHeight},
	}
	for _, existing := range doc.Widgets {
		if existing.Type == entry.Type {
			return fmt.Errorf("brandctl: manifest already defines widget %s", entry.Type)
		}
	}
	doc.Widgets = append(doc.Widgets, entry)
	if err := doc.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cmd.Path), 0o755); err != nil {
		return fmt.Errorf("brandctl: mkdir %s: %w", filepath.Dir(cmd.Path), err)
	}
	file, err := os.Create(cmd.Path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("brandctl: create manifest %s: %w", cmd.Path, err)
	}
	defer file.Close()
	if err := dashboard.WriteManifest(file, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "added %s to %s\n", entry.Type, cmd.Path)
	return nil
}

func loadOrInitManifest(path string) (*dashboard.CatalogManifest, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.CatalogManifest{
				Version: dashboard.ManifestVersion,
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("brandctl: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}
