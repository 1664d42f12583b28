package render

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Reference is one link or resource pulled out of the references deliverable.
type Reference struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
}

// References groups extracted resources by category.
type References struct {
	Repositories []Reference `json:"repositories"`
	Websites     []Reference `json:"websites"`
	Architecture []Reference `json:"architecture"`
	Learning     []Reference `json:"learning"`
	Tools        []Reference `json:"tools"`
	Industry     []Reference `json:"industry"`
}

const (
	repoDescription    = "Open source project with similar functionality"
	websiteDescription = "Live example implementation"
)

var (
	repoPattern   = regexp.MustCompile(`github\.com/[^\s)\]>"']+`)
	urlPattern    = regexp.MustCompile(`https?://[^\s)\]>"']+`)
	headerPattern = regexp.MustCompile(`^#{1,6}\s+(.*)$`)
	mdLink        = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\s)]+)\)`)
)

// ParseReferences extracts repositories, live sites and section bullets.
func ParseReferences(content string) References {
	refs := References{
		Repositories: []Reference{},
		Websites:     []Reference{},
		Architecture: []Reference{},
		Learning:     []Reference{},
		Tools:        []Reference{},
		Industry:     []Reference{},
	}

	seenRepos := map[string]bool{}
	for _, match := range repoPattern.FindAllString(content, -1) {
		repo := trimURL(match)
		u := "https://" + repo
		if seenRepos[u] {
			continue
		}
		seenRepos[u] = true
		refs.Repositories = append(refs.Repositories, Reference{
			Name:        path.Base(strings.TrimSuffix(repo, "/")),
			URL:         u,
			Description: repoDescription,
		})
	}

	seenSites := map[string]bool{}
	for _, match := range urlPattern.FindAllString(content, -1) {
		site := trimURL(match)
		if strings.Contains(site, "github.com") || seenSites[site] {
			continue
		}
		parsed, err := url.Parse(site)
		if err != nil || parsed.Host == "" {
			continue
		}
		seenSites[site] = true
		refs.Websites = append(refs.Websites, Reference{
			Name:        parsed.Hostname(),
			URL:         site,
			Description: websiteDescription,
		})
	}

	var bucket *[]Reference
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := headerPattern.FindStringSubmatch(trimmed); m != nil {
			bucket = refs.bucketFor(m[1])
			continue
		}
		if bucket == nil {
			continue
		}
		if item, ok := bulletItem(trimmed); ok {
			*bucket = append(*bucket, item)
		}
	}

	return refs
}

// bucketFor picks the category a section title belongs to, or nil.
func (r *References) bucketFor(title string) *[]Reference {
	title = strings.ToLower(title)
	switch {
	case strings.Contains(title, "architecture") || strings.Contains(title, "pattern"):
		return &r.Architecture
	case strings.Contains(title, "learning") || strings.Contains(title, "tutorial"):
		return &r.Learning
	case strings.Contains(title, "tool") || strings.Contains(title, "library"):
		return &r.Tools
	case strings.Contains(title, "industry") || strings.Contains(title, "company"):
		return &r.Industry
	}
	return nil
}

func bulletItem(line string) (Reference, bool) {
	if len(line) < 2 || (line[0] != '-' && line[0] != '*') || (line[1] != ' ' && line[1] != '\t') {
		return Reference{}, false
	}
	item := strings.TrimSpace(line[1:])
	if item == "" {
		return Reference{}, false
	}

	ref := Reference{Description: item}
	if m := mdLink.FindStringSubmatch(item); m != nil {
		ref.URL = trimURL(m[2])
		ref.Name = strings.TrimSpace(m[1])
	} else {
		if u := urlPattern.FindString(item); u != "" {
			ref.URL = trimURL(u)
		}
		ref.Name = strings.TrimSpace(urlPattern.ReplaceAllString(item, ""))
	}
	ref.Name = strings.Trim(ref.Name, "*_ :-")
	if ref.Name == "" {
		ref.Name = ref.URL
	}
	return ref, true
}

func trimURL(u string) string {
	return strings.TrimRight(u, ".,;:!?*`")
}
