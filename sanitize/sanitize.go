package sanitize

import (
	"regexp"
	"strings"
)

var (
	memberPattern  = regexp.MustCompile(`<@!?([0-9]+)>`)
	channelPattern = regexp.MustCompile(`<#([0-9]+)>`)
	emojiPattern   = regexp.MustCompile(`<a?(:[0-9A-Za-z_]+:)[0-9]+>`)
)

// Directory resolves platform ids to display names.
type Directory interface {
	MemberName(id string) (string, bool)
	ChannelName(id string) (string, bool)
}

// Text replaces member mentions, channel links and custom emoji tokens with
// plain text. Ids the directory does not know are left untouched.
func Text(text string, dir Directory) string {
	if dir != nil {
		text = Members(text, dir)
		text = Channels(text, dir)
	}
	return Emoji(text)
}

// Members 将 <@id> / <@!id> 替换为成员显示名。
func Members(text string, dir Directory) string {
	return replaceIDs(memberPattern, text, func(id string) (string, bool) {
		return dir.MemberName(id)
	})
}

// Channels 将 <#id> 替换为 #频道名。
func Channels(text string, dir Directory) string {
	return replaceIDs(channelPattern, text, func(id string) (string, bool) {
		name, ok := dir.ChannelName(id)
		if !ok {
			return "", false
		}
		return "#" + strings.TrimPrefix(name, "#"), true
	})
}

// Emoji 将 <:name:id> / <a:name:id> 替换为 :name:。
func Emoji(text string) string {
	return emojiPattern.ReplaceAllString(text, "$1")
}

func replaceIDs(pattern *regexp.Regexp, text string, lookup func(id string) (string, bool)) string {
	return pattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := pattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if name, ok := lookup(groups[1]); ok && name != "" {
			return name
		}
		return match
	})
}

// MapDirectory is an in-memory Directory.
type MapDirectory struct {
	Members  map[string]string `mapstructure:"members" json:"members"`
	Channels map[string]string `mapstructure:"channels" json:"channels"`
}

func (d MapDirectory) MemberName(id string) (string, bool) {
	name, ok := d.Members[id]
	return name, ok
}

func (d MapDirectory) ChannelName(id string) (string, bool) {
	name, ok := d.Channels[id]
	return name, ok
}
