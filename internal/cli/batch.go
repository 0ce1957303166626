package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// readURLs returns the non-empty, non-comment lines of r
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return urls, nil
}

// runBatch reads URLs from a file and downloads each one. Multi-item URLs
// use --index when given, so batches work best with single-item links.
func runBatch(ctx context.Context, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	urls, err := readURLs(file)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in file")
	}

	fmt.Printf("Found %d URL(s) to download\n\n", len(urls))

	var succeeded int
	var failedURLs []string
	for i, url := range urls {
		if ctx.Err() != nil {
			break
		}
		fmt.Printf("[%d/%d] %s\n", i+1, len(urls), truncateURL(url, 60))

		if err := runDownload(ctx, url); err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", color.RedString("Error:"), err)
			failedURLs = append(failedURLs, url)
		} else {
			succeeded++
		}
		fmt.Println()
	}

	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Completed: %d/%d", succeeded, len(urls))
	if len(failedURLs) > 0 {
		fmt.Printf(", Failed: %d", len(failedURLs))
	}
	fmt.Println()

	if len(failedURLs) > 0 {
		fmt.Println("\nFailed URLs:")
		for _, url := range failedURLs {
			fmt.Printf("  - %s\n", url)
		}
	}
	return ctx.Err()
}

// truncateURL shortens a URL for display
func truncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen-3] + "..."
}
