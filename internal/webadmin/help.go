// ABOUTME: Activity log and embedded help pages for the admin console
// ABOUTME: Help topics are markdown files rendered with goldmark

package webadmin

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"path"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/2389/bot-console/internal/store"
)

//go:embed docs/help/*.md
var helpDocsFS embed.FS

const defaultHelpTopic = "getting-started"

// topicOrder sorts help topics in reading order; unknown topics go last
var topicOrder = map[string]int{
	"getting-started": 1,
	"managing-users":  2,
	"validation":      3,
	"configuration":   4,
	"troubleshooting": 5,
}

// helpTopic represents a help topic in the navigation
type helpTopic struct {
	Slug   string
	Title  string
	Active bool
}

// handleHelp renders a help topic
func (a *Admin) handleHelp(w http.ResponseWriter, r *http.Request) {
	selected := r.PathValue("topic")
	if selected == "" {
		selected = defaultHelpTopic
	}

	topics, err := listHelpTopics(selected)
	if err != nil {
		a.logger.Error("failed to read help docs", "error", err)
		http.Error(w, "Failed to load help", http.StatusInternalServerError)
		return
	}
	if !slices.ContainsFunc(topics, func(t helpTopic) bool { return t.Slug == selected }) {
		http.NotFound(w, r)
		return
	}

	mdContent, err := helpDocsFS.ReadFile(path.Join("docs/help", selected+".md"))
	if err != nil {
		a.logger.Error("failed to read help topic", "topic", selected, "error", err)
		http.NotFound(w, r)
		return
	}

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert(mdContent, &htmlBuf); err != nil {
		a.logger.Error("failed to convert markdown", "error", err)
		htmlBuf.Reset()
		htmlBuf.WriteString("<p>Failed to render help content.</p>")
	}

	a.renderPage(w, http.StatusOK, "help.html", helpData{
		Title:     "Help: " + formatHelpTitle(selected),
		CSRFToken: getCSRFToken(r),
		Topics:    topics,
		Content:   template.HTML(htmlBuf.String()),
	})
}

// listHelpTopics lists the embedded topics in reading order
func listHelpTopics(selected string) ([]helpTopic, error) {
	entries, err := helpDocsFS.ReadDir("docs/help")
	if err != nil {
		return nil, err
	}

	var topics []helpTopic
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		slug := strings.TrimSuffix(entry.Name(), ".md")
		topics = append(topics, helpTopic{
			Slug:   slug,
			Title:  formatHelpTitle(slug),
			Active: slug == selected,
		})
	}

	sort.Slice(topics, func(i, j int) bool {
		orderI, okI := topicOrder[topics[i].Slug]
		orderJ, okJ := topicOrder[topics[j].Slug]
		if !okI {
			orderI = 100
		}
		if !okJ {
			orderJ = 100
		}
		if orderI != orderJ {
			return orderI < orderJ
		}
		return topics[i].Slug < topics[j].Slug
	})
	return topics, nil
}

// formatHelpTitle converts a slug to a display title
func formatHelpTitle(slug string) string {
	words := strings.Split(slug, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// handleActivity renders recent audit log entries
func (a *Admin) handleActivity(w http.ResponseWriter, r *http.Request) {
	filter := store.AuditFilter{Limit: 100}

	selected := r.URL.Query().Get("action")
	if selected != "" {
		action := store.AuditAction(selected)
		if !slices.Contains(store.ValidAuditActions, action) {
			http.Error(w, "Unknown action", http.StatusBadRequest)
			return
		}
		filter.Action = &action
	}
	if user := r.URL.Query().Get("user"); user != "" {
		filter.TargetUser = &user
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}

	entries, err := a.store.ListAuditLog(r.Context(), filter)
	if err != nil {
		a.logger.Error("failed to list audit log", "error", err)
		http.Error(w, "Failed to load activity", http.StatusInternalServerError)
		return
	}

	rows := make([]activityRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, newActivityRow(e))
	}

	a.renderPage(w, http.StatusOK, "activity.html", activityData{
		Title:     "Activity",
		CSRFToken: getCSRFToken(r),
		Entries:   rows,
		Actions:   store.ValidAuditActions,
		Selected:  selected,
	})
}
