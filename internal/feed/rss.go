// Package feed maintains an RSS 2.0 feed of release notes alongside the
// JSON feed artifact. The feed is regenerated on every update: existing
// items are parsed, the new release is merged in by guid, and the result
// is serialized newest first with a bounded item count.
package feed

import (
	"encoding/xml"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultMaxEntries bounds how many items the feed retains.
const DefaultMaxEntries = 50

// Channel holds the RSS channel metadata.
type Channel struct {
	Title       string
	Link        string
	Description string
}

// Item is one release in the feed. Guid doubles as the merge key.
type Item struct {
	Title           string
	Link            string
	Guid            string
	PubDate         time.Time
	DescriptionHTML string
}

// DefaultChannel derives channel metadata from an owner/repo slug.
func DefaultChannel(repository string) Channel {
	owner, repo, _ := strings.Cut(repository, "/")
	return Channel{
		Title:       repo + " Releases",
		Link:        "https://github.com/" + owner + "/" + repo + "/releases",
		Description: "Release notes for " + owner + "/" + repo + ".",
	}
}

type xmlRSS struct {
	XMLName xml.Name   `xml:"rss"`
	Channel xmlChannel `xml:"channel"`
}

type xmlChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []xmlItem `xml:"item"`
}

type xmlItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Guid        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// Parse reads an existing feed. Items with unparseable pubDates sort to
// the end rather than failing the whole update.
func Parse(data []byte) (Channel, []Item, error) {
	var parsed xmlRSS
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return Channel{}, nil, fmt.Errorf("parsing RSS feed: %w", err)
	}

	channel := Channel{
		Title:       strings.TrimSpace(parsed.Channel.Title),
		Link:        strings.TrimSpace(parsed.Channel.Link),
		Description: strings.TrimSpace(parsed.Channel.Description),
	}

	items := make([]Item, 0, len(parsed.Channel.Items))
	for _, el := range parsed.Channel.Items {
		item := Item{
			Title:           strings.TrimSpace(el.Title),
			Link:            strings.TrimSpace(el.Link),
			Guid:            strings.TrimSpace(el.Guid),
			DescriptionHTML: strings.TrimSpace(el.Description),
		}
		if item.Guid == "" {
			if item.Link != "" {
				item.Guid = item.Link
			} else {
				item.Guid = item.Title
			}
		}
		if dt, err := mail.ParseDate(strings.TrimSpace(el.PubDate)); err == nil {
			item.PubDate = dt.UTC()
		}
		items = append(items, item)
	}
	return channel, items, nil
}

// Merge upserts the new item by guid, sorts newest first, and truncates
// to maxEntries.
func Merge(items []Item, newItem Item, maxEntries int) []Item {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	merged := make([]Item, 0, len(items)+1)
	seen := map[string]bool{}
	for _, existing := range items {
		key := itemKey(existing)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, existing)
	}

	newKey := itemKey(newItem)
	replaced := false
	for i, existing := range merged {
		if itemKey(existing) == newKey {
			merged[i] = newItem
			replaced = true
			break
		}
	}
	if !replaced {
		merged = append(merged, newItem)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PubDate.After(merged[j].PubDate)
	})
	if len(merged) > maxEntries {
		merged = merged[:maxEntries]
	}
	return merged
}

func itemKey(item Item) string {
	if item.Guid != "" {
		return item.Guid
	}
	if item.Link != "" {
		return item.Link
	}
	return item.Title
}

// Render serializes the feed as RSS 2.0. Descriptions are wrapped in
// CDATA so the HTML fragment survives untouched.
func Render(channel Channel, items []Item, lastBuild time.Time) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0">` + "\n")
	b.WriteString("  <channel>\n")
	b.WriteString("    <title>" + xmlText(channel.Title) + "</title>\n")
	b.WriteString("    <link>" + xmlText(channel.Link) + "</link>\n")
	b.WriteString("    <description>" + xmlText(channel.Description) + "</description>\n")
	b.WriteString("    <lastBuildDate>" + xmlText(formatRFC2822(lastBuild)) + "</lastBuildDate>\n")

	for _, item := range items {
		b.WriteString("    <item>\n")
		b.WriteString("      <title>" + xmlText(item.Title) + "</title>\n")
		b.WriteString("      <link>" + xmlText(item.Link) + "</link>\n")
		b.WriteString("      <guid>" + xmlText(item.Guid) + "</guid>\n")
		b.WriteString("      <pubDate>" + xmlText(formatRFC2822(item.PubDate)) + "</pubDate>\n")
		b.WriteString("      <description><![CDATA[" + cdataEscape(item.DescriptionHTML) + "]]></description>\n")
		b.WriteString("    </item>\n")
	}

	b.WriteString("  </channel>\n")
	b.WriteString("</rss>\n")
	return b.String()
}

// Update merges one release into the feed at path and rewrites it. A
// missing file starts a fresh feed with channel metadata derived from
// the repository slug.
func Update(path, repository, releaseTag, releaseURL, notesHTML string, publishedAt time.Time, maxEntries int) error {
	channel := DefaultChannel(repository)
	var items []Item

	if raw, err := os.ReadFile(path); err == nil && strings.TrimSpace(string(raw)) != "" {
		existingChannel, existingItems, parseErr := Parse(raw)
		if parseErr != nil {
			return parseErr
		}
		if existingChannel.Title != "" {
			channel.Title = existingChannel.Title
		}
		if existingChannel.Link != "" {
			channel.Link = existingChannel.Link
		}
		if existingChannel.Description != "" {
			channel.Description = existingChannel.Description
		}
		items = existingItems
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading RSS feed: %w", err)
	}

	newItem := Item{
		Title:           strings.TrimSpace(releaseTag),
		Link:            strings.TrimSpace(releaseURL),
		Guid:            strings.TrimSpace(releaseURL),
		PubDate:         publishedAt.UTC(),
		DescriptionHTML: notesHTML,
	}
	merged := Merge(items, newItem, maxEntries)

	return writeFeedFile(path, Render(channel, merged, publishedAt.UTC()))
}

// writeFeedFile writes the feed using temp file + rename pattern.
func writeFeedFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing temp feed file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("renaming temp feed file: %w", err)
	}

	return nil
}

func formatRFC2822(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
}

// cdataEscape splits any literal "]]>" across CDATA sections.
func cdataEscape(text string) string {
	return strings.ReplaceAll(text, "]]>", "]]]]><![CDATA[>")
}

func xmlText(text string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(text)); err != nil {
		return text
	}
	return b.String()
}
