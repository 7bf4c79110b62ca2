package fetcher

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"enchantment-resolver/internal/enchantments"
)

var (
	itemHrefPattern     = regexp.MustCompile(`item=(\d+)`)
	qualityClassPattern = regexp.MustCompile(`^q\d$`)
	scriptItemPattern   = regexp.MustCompile(`g_items\[(\d+)\]`)
	scriptNamePattern   = regexp.MustCompile(`"name_enus"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// Extract applies the extraction strategies to a page in order and returns the first
// match, or nil when the page references no item.
//
// Strategy A takes the first link to an item page that has visible text; the item is a
// gem when the link carries a quality class (q0..q9), an enchant otherwise. Strategy B
// looks for an item map assignment in inline scripts and always yields a gem.
func Extract(body []byte) *enchantments.Extraction {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return fromScriptText(string(body))
	}
	if ext := fromAnchors(doc); ext != nil {
		return ext
	}
	return fromScripts(doc)
}

func fromAnchors(doc *html.Node) *enchantments.Extraction {
	var found *enchantments.Extraction
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return true
		}
		match := itemHrefPattern.FindStringSubmatch(attr(n, "href"))
		if match == nil {
			return true
		}
		name := strings.Join(strings.Fields(textContent(n)), " ")
		if name == "" {
			return true
		}
		id, err := strconv.Atoi(match[1])
		if err != nil {
			return true
		}

		category := enchantments.CategoryEnchant
		if hasQualityClass(attr(n, "class")) {
			category = enchantments.CategoryGem
		}
		found = &enchantments.Extraction{ItemID: id, Name: name, Category: category}
		return false
	})
	return found
}

func fromScripts(doc *html.Node) *enchantments.Extraction {
	var found *enchantments.Extraction
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Script {
			return true
		}
		found = fromScriptText(textContent(n))
		return found == nil
	})
	return found
}

func fromScriptText(script string) *enchantments.Extraction {
	loc := scriptItemPattern.FindStringSubmatchIndex(script)
	if loc == nil {
		return nil
	}
	id, err := strconv.Atoi(script[loc[2]:loc[3]])
	if err != nil {
		return nil
	}

	ext := &enchantments.Extraction{ItemID: id, Category: enchantments.CategoryGem}
	if name := scriptNamePattern.FindStringSubmatch(script[loc[1]:]); name != nil {
		ext.Name = unescape(name[1])
	}
	return ext
}

func unescape(s string) string {
	if unquoted, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return strings.TrimSpace(unquoted)
	}
	return strings.TrimSpace(s)
}

func hasQualityClass(class string) bool {
	for _, token := range strings.Fields(class) {
		if qualityClassPattern.MatchString(token) {
			return true
		}
	}
	return false
}

// walk visits n and its descendants depth first until visit returns false
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}
