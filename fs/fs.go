// Package appfs embeds runtime assets: goose migrations and email templates.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
