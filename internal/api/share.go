package api

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	shareCodeRe  = regexp.MustCompile(`^[A-Za-z0-9]{6,}$`)
	sharePathRe  = regexp.MustCompile(`/t/([A-Za-z0-9]+)`)
	accessCodeRe = regexp.MustCompile(`[（(]\s*访问码\s*[:：]\s*([A-Za-z0-9]+)\s*[)）]`)
)

// ParseShareLink extracts the share code and optional access code from user
// input. Accepted forms:
//
//	https://cloud.189.cn/t/AbCd1234
//	https://cloud.189.cn/web/share?code=AbCd1234
//	https://cloud.189.cn/t/AbCd1234（访问码：xy9k）
//	AbCd1234
//
// An explicit access code passed alongside the link wins over one embedded
// in it.
func ParseShareLink(input string) (shareCode, accessCode string, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", "", NewValidationError("share", "share link is empty")
	}

	// Access code appended in the Chinese convention, before or after the URL
	if m := accessCodeRe.FindStringSubmatch(input); m != nil {
		accessCode = m[1]
		input = strings.TrimSpace(accessCodeRe.ReplaceAllString(input, ""))
	}

	// Bare share code
	if !strings.Contains(input, "/") && !strings.Contains(input, "?") {
		if !shareCodeRe.MatchString(input) {
			return "", "", NewValidationError("share", "not a share code or link: "+input)
		}
		return input, accessCode, nil
	}

	if m := sharePathRe.FindStringSubmatch(input); m != nil {
		shareCode = m[1]
	}

	if u, perr := url.Parse(input); perr == nil {
		q := u.Query()
		if shareCode == "" {
			if c := q.Get("code"); c != "" {
				shareCode = c
			} else if c := q.Get("shareCode"); c != "" {
				shareCode = c
			}
		}
		if accessCode == "" {
			accessCode = q.Get("accessCode")
		}
	}

	if shareCode == "" {
		return "", "", NewValidationError("share", "no share code found in: "+input)
	}
	return shareCode, accessCode, nil
}
