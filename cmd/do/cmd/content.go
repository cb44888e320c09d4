package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/uxlens/uxlens/internal/service"
)

// Pages the routes link to; the server renders a 404 without them.
var requiredPages = map[string][]string{
	service.SectionPages: {"pricing", "about"},
	service.SectionLegal: {"privacy", "terms"},
}

func ContentCmd() *cobra.Command {
	var (
		dir     string
		siteURL string
		sitemap bool
	)

	cmd := &cobra.Command{
		Use:   "content",
		Short: "Content tools",
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Parse every markdown page and report missing required pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			contentService := service.NewContentService(dir, false)
			err := contentService.Load()
			if err != nil {
				return err
			}

			for _, section := range []string{service.SectionPages, service.SectionLegal} {
				for _, p := range contentService.Pages(section) {
					fmt.Printf("%-6s %-12s %q (updated %s)\n", section, p.Slug, p.Title, p.LastUpdated)
				}
			}

			var missing []string
			for section, slugs := range requiredPages {
				for _, slug := range slugs {
					if _, err := contentService.Page(section, slug); err != nil {
						missing = append(missing, section+"/"+slug)
					}
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("missing required pages: %v", missing)
			}

			if sitemap {
				out, err := service.NewSitemapService(contentService, siteURL).GenerateSitemap()
				if err != nil {
					return err
				}
				_, _ = os.Stdout.Write(out)
				fmt.Println()
			}
			return nil
		},
	}
	check.Flags().StringVar(&dir, "dir", envOr("CONTENT_PATH", "content"), "content directory")
	check.Flags().StringVar(&siteURL, "site-url", envOr("SITE_URL", "http://localhost:8090"), "base URL for sitemap entries")
	check.Flags().BoolVar(&sitemap, "sitemap", false, "print the generated sitemap")

	cmd.AddCommand(check)
	return cmd
}
