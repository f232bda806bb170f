package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"toolusage/internal/app"
	"toolusage/internal/app/usage"
	"toolusage/internal/domain"
)

func writeJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printCategories(categories []usage.Category, jsonOutput bool) error {
	if jsonOutput {
		rows := make([]map[string]string, 0, len(categories))
		for _, category := range categories {
			rows = append(rows, map[string]string{
				"name":    category.Name,
				"groupId": category.GroupID,
				"shape":   category.Shape.String(),
			})
		}
		return writeJSON(rows)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGROUP ID\tSHAPE")
	for _, category := range categories {
		fmt.Fprintf(w, "%s\t%s\t%s\n", category.Name, category.GroupID, category.Shape)
	}
	return w.Flush()
}

func printCategoryUsages(category usage.Category, usages domain.UsageSet, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(domain.CategoryUsage{
			Name:    category.Name,
			GroupID: category.GroupID,
			Usages:  usages,
		})
	}
	for _, id := range usages.IDs() {
		fmt.Println(id)
	}
	return nil
}

func printCatalogStatus(status app.CatalogStatus, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(status)
	}
	source := status.Source
	if source == "" {
		source = "(none configured)"
	}
	fmt.Printf("source=%s\n", source)
	fmt.Printf("plugins_root=%s\n", status.PluginsRoot)
	fmt.Printf("cache=%s\n", status.CachePath)
	fmt.Printf("fetched_at=%s stored_at=%s stale=%t refreshing=%t\n",
		formatTime(status.FetchedAt), formatTime(status.StoredAt), status.Stale, status.Refreshing)
	fmt.Printf("plugins=%d\n", len(status.PluginIDs))
	for _, id := range status.PluginIDs {
		fmt.Println(id)
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
