package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL joins DATABASE_URL and DATABASE_NAME.
// sslmode=disable is appended unless the URL already carries an sslmode.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base, query, hasQuery := strings.Cut(strings.TrimRight(baseURL, "/"), "?")
	base = strings.TrimRight(base, "/")

	url := fmt.Sprintf("%s/%s", base, databaseName)
	if hasQuery {
		url = fmt.Sprintf("%s?%s", url, query)
	}

	if strings.Contains(url, "sslmode=") {
		return url
	}
	if hasQuery {
		return url + "&sslmode=disable"
	}
	return url + "?sslmode=disable"
}
