// Command formcli works with form definitions from the terminal: it checks a
// definition for authoring errors, previews it as HTML or as an interactive
// session, and tabulates stored applications.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	iskolarforms "github.com/LouieCads/iskolar-forms"
	"github.com/LouieCads/iskolar-forms/internal/storage"
	"github.com/LouieCads/iskolar-forms/pkg/render"
	"github.com/LouieCads/iskolar-forms/pkg/renderers/tui"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "check":
		err = runCheck(os.Args[2:])
	case "html":
		err = runHTML(os.Args[2:])
	case "preview":
		err = runPreview(os.Args[2:])
	case "apps":
		err = runApps(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: formcli <command> [flags]

commands:
  check    -f definition.json           validate a definition for authoring errors
  html     -f definition.json [-title]  render a definition as HTML to stdout
  preview  -f definition.json           fill the form interactively, print answers
  apps     -db forms.db -scholarship id list stored applications`)
}

func loadDefinition(path string) (iskolarforms.FormDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	def := iskolarforms.Normalize(string(raw), nil)
	if len(def) == 0 {
		return nil, fmt.Errorf("%s contains no recognizable fields", path)
	}
	return def, nil
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	path := fs.String("f", "", "definition file")
	fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("-f is required")
	}

	def, err := loadDefinition(*path)
	if err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		color.Red("definition has problems:")
		fmt.Println(err)
		os.Exit(1)
	}
	color.Green("definition ok: %d field(s)", len(def))
	return nil
}

func runHTML(args []string) error {
	fs := flag.NewFlagSet("html", flag.ExitOnError)
	path := fs.String("f", "", "definition file")
	title := fs.String("title", "", "form title")
	fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("-f is required")
	}

	def, err := loadDefinition(*path)
	if err != nil {
		return err
	}
	registry := iskolarforms.NewRendererRegistry()
	renderer, err := registry.Get("html")
	if err != nil {
		return err
	}
	out, err := renderer.Render(context.Background(), def, render.Options{Title: *title})
	if err != nil {
		return err
	}
	os.Stdout.Write(out)
	return nil
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	path := fs.String("f", "", "definition file")
	fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("-f is required")
	}

	def, err := loadDefinition(*path)
	if err != nil {
		return err
	}
	out, err := tui.New().Render(context.Background(), def, render.Options{})
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runApps(args []string) error {
	fs := flag.NewFlagSet("apps", flag.ExitOnError)
	dbPath := fs.String("db", "iskolar-forms.db", "database path")
	scholarshipID := fs.String("scholarship", "", "scholarship id")
	fs.Parse(args)
	if *scholarshipID == "" {
		return fmt.Errorf("-scholarship is required")
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	apps, err := store.ListApplications(ctx, *scholarshipID)
	if err != nil {
		return err
	}
	if len(apps) == 0 {
		color.Yellow("no applications for scholarship %s", *scholarshipID)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Application", "Student", "Status", "Submitted", "Answered"})
	for _, app := range apps {
		table.Append([]string{
			app.ID,
			app.StudentID,
			statusLabel(app.Status),
			app.CreatedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", len(app.Response)),
		})
	}
	table.Render()
	return nil
}

func statusLabel(status string) string {
	switch status {
	case storage.StatusComplete:
		return color.GreenString(status)
	case storage.StatusIncomplete:
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}
