package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-github/v66/github"
)

const (
	GitHubToolName = "github_profile"
	githubPageSize = 30
	githubTopRepos = 10
)

// GitHub fetches a public profile, its repositories and recent activity.
type GitHub struct {
	client *github.Client
}

// NewGitHub builds the adapter. token and baseURL are optional; httpClient may be
// nil.
func NewGitHub(token, baseURL string, httpClient *http.Client) (*GitHub, error) {
	c := github.NewClient(httpClient)
	if token != "" {
		c = c.WithAuthToken(token)
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url %q: %w", baseURL, err)
		}
		c.BaseURL = u
	}
	return &GitHub{client: c}, nil
}

func (g *GitHub) Name() string { return GitHubToolName }

func (g *GitHub) Call(ctx context.Context, req Request) (*ToolCall, error) {
	handle := strings.TrimPrefix(strings.TrimSpace(req.GitHubHandle), "@")
	if handle == "" {
		return nil, fmt.Errorf("%s: github handle is required", GitHubToolName)
	}

	user, _, err := g.client.Users.Get(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("%s: get user %s: %w", GitHubToolName, handle, err)
	}
	repos, _, err := g.client.Repositories.ListByUser(ctx, handle, &github.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: githubPageSize},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: list repositories for %s: %w", GitHubToolName, handle, err)
	}
	events, _, err := g.client.Activity.ListEventsPerformedByUser(ctx, handle, true, &github.ListOptions{PerPage: githubPageSize})
	if err != nil {
		return nil, fmt.Errorf("%s: list events for %s: %w", GitHubToolName, handle, err)
	}

	return &ToolCall{
		Tool:   GitHubToolName,
		Params: map[string]string{"username": handle},
		Output: renderGitHubDigest(user, repos, events),
	}, nil
}

func renderGitHubDigest(user *github.User, repos []*github.Repository, events []*github.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile: %s (%s)\n", user.GetLogin(), user.GetHTMLURL())
	if name := user.GetName(); name != "" {
		fmt.Fprintf(&b, "Name: %s\n", name)
	}
	if bio := user.GetBio(); bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", bio)
	}
	if company := user.GetCompany(); company != "" {
		fmt.Fprintf(&b, "Company: %s\n", company)
	}
	fmt.Fprintf(&b, "Public repos: %d, followers: %d, following: %d\n",
		user.GetPublicRepos(), user.GetFollowers(), user.GetFollowing())

	languages := map[string]int{}
	var owned []*github.Repository
	for _, r := range repos {
		if r.GetFork() {
			continue
		}
		owned = append(owned, r)
		if lang := r.GetLanguage(); lang != "" {
			languages[lang]++
		}
	}
	if len(languages) > 0 {
		b.WriteString("Languages: ")
		b.WriteString(formatCounts(languages))
		b.WriteString("\n")
	}

	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].GetStargazersCount() > owned[j].GetStargazersCount()
	})
	if len(owned) > githubTopRepos {
		owned = owned[:githubTopRepos]
	}
	if len(owned) > 0 {
		b.WriteString("\nTop repositories:\n")
	}
	for i, r := range owned {
		fmt.Fprintf(&b, "%d. %s [%s] stars=%d forks=%d pushed=%s\n",
			i+1, r.GetName(), r.GetLanguage(), r.GetStargazersCount(), r.GetForksCount(),
			r.GetPushedAt().Format("2006-01-02"))
		if desc := r.GetDescription(); desc != "" {
			fmt.Fprintf(&b, "   %s\n", desc)
		}
		if len(r.Topics) > 0 {
			fmt.Fprintf(&b, "   topics: %s\n", strings.Join(r.Topics, ", "))
		}
	}

	if len(events) > 0 {
		kinds := map[string]int{}
		for _, e := range events {
			kinds[e.GetType()]++
		}
		fmt.Fprintf(&b, "\nRecent activity (%d events, latest %s): %s\n",
			len(events), events[0].GetCreatedAt().Format("2006-01-02"), formatCounts(kinds))
	} else {
		b.WriteString("\nRecent activity: none\n")
	}
	return b.String()
}

// formatCounts renders counts by descending value then name.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
