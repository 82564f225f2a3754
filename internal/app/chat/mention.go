package chat

import "regexp"

// mentionPattern matches "@" followed by a run of non-space characters.
// Unicode separators such as the ideographic space end a mention too.
var mentionPattern = regexp.MustCompile(`@([^\s\x0B\p{Z}\x{FEFF}]+)`)

// ExtractMentions returns every @name in content in order of appearance,
// without the sender's own name. Repeated names are kept.
func ExtractMentions(content, sender string) []string {
	mentions := make([]string, 0)

	for _, match := range mentionPattern.FindAllStringSubmatch(content, -1) {
		if name := match[1]; name != sender {
			mentions = append(mentions, name)
		}
	}

	return mentions
}
