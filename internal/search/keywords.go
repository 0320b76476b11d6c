package search

import (
	"strings"
	"unicode"
)

// techTerms are product and infrastructure names that should always be
// treated as search keywords when they appear in a query, regardless of
// query language.
var techTerms = []string{
	"snowflake", "kmdf", "api", "database", "db", "redis", "kafka",
	"aws", "s3", "lambda", "ec2", "rds", "docker", "kubernetes", "k8s",
	"jenkins", "git", "github", "airflow", "spark", "elasticsearch",
	"grafana", "prometheus", "datadog", "nginx", "apache", "mongodb",
	"postgres", "mysql", "sf",
}

// issueTerms are problem words, Korean and English, that anchor a query to
// past incidents.
var issueTerms = []string{
	"지연", "오류", "에러", "장애", "실패", "중단", "느림", "타임아웃",
	"연결", "접속", "로그인", "권한", "배포", "업데이트", "설치",
	"error", "outage", "failure", "failed", "timeout", "slow", "down",
	"crash", "deploy", "deployment", "login", "permission", "connection",
}

const minTokenRunes = 3

// ExtractKeywords pulls search terms from a free-form question: curated
// tech and issue vocabulary hits first, then remaining tokens of three or
// more characters. Order is deterministic and duplicates are removed.
func ExtractKeywords(query string) []string {
	lower := strings.ToLower(query)
	seen := make(map[string]bool)
	var keywords []string

	add := func(term string) {
		if term != "" && !seen[term] {
			seen[term] = true
			keywords = append(keywords, term)
		}
	}

	for _, term := range techTerms {
		if strings.Contains(lower, term) {
			add(term)
		}
	}
	for _, term := range issueTerms {
		if strings.Contains(lower, term) {
			add(term)
		}
	}
	for _, token := range tokenize(lower) {
		if len([]rune(token)) >= minTokenRunes {
			add(token)
		}
	}
	return keywords
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
