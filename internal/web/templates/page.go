// Package templates renders the upload page and its result fragments as
// templ components.
package templates

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// PageData configures the upload page.
type PageData struct {
	ButtonText          string
	ShowConfirmation    bool
	ConfirmationMessage string
	Accept              []string // file extensions without the dot
	Result              templ.Component
}

// ResultData describes a finished conversion.
type ResultData struct {
	Message        string
	ConversionID   string
	Filename       string
	OutputFilename string
	Format         string
	TagCount       int
	Cached         bool
	Output         []byte
}

const pageStyle = `body{font-family:system-ui,sans-serif;max-width:56rem;margin:2rem auto;padding:0 1rem;color:#1f2937}
h1{font-size:1.5rem}
.upload{display:flex;gap:.75rem;align-items:center;margin:1.5rem 0}
.btn{background:#2563eb;color:#fff;border:0;border-radius:.375rem;padding:.5rem 1rem;cursor:pointer}
.alert{border-radius:.375rem;padding:.75rem 1rem;margin:1rem 0}
.alert-success{background:#ecfdf5;border:1px solid #10b981}
.alert-error{background:#fef2f2;border:1px solid #ef4444}
.alert small{display:block;color:#6b7280;margin-top:.25rem}
pre{background:#f3f4f6;border-radius:.375rem;padding:1rem;overflow:auto;max-height:32rem}`

// UploadPage is the full upload page. When data.Result is set it is shown
// below the form.
func UploadPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		accept := make([]string, len(data.Accept))
		for i, ext := range data.Accept {
			accept[i] = "." + ext
		}

		onsubmit := ""
		if data.ShowConfirmation && data.ConfirmationMessage != "" {
			onsubmit = fmt.Sprintf(` onsubmit="return confirm(&quot;%s&quot;)"`,
				templ.EscapeString(strings.ReplaceAll(data.ConfirmationMessage, `"`, `'`)))
		}

		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Tag Converter</title>
<style>%s</style>
</head>
<body>
<h1>Tag Converter</h1>
<p>Convert a CSV, XML or JSON tag export into a JSON import document.</p>
<form class="upload" method="post" action="/convert" enctype="multipart/form-data"%s>
<input type="file" name="file" accept="%s" required>
<button class="btn" type="submit">%s</button>
</form>
<div id="result">`,
			pageStyle,
			onsubmit,
			templ.EscapeString(strings.Join(accept, ",")),
			templ.EscapeString(data.ButtonText),
		); err != nil {
			return err
		}

		if data.Result != nil {
			if err := data.Result.Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</div>\n</body>\n</html>\n")
		return err
	})
}

// ConvertResult shows a successful conversion with a preview and a download
// link for the document.
func ConvertResult(data ResultData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		cached := ""
		if data.Cached {
			cached = " (cached)"
		}

		href := "data:application/json;base64," + base64.StdEncoding.EncodeToString(data.Output)

		_, err := fmt.Fprintf(w, `<div class="alert alert-success" role="status">
<strong>%s</strong>
<small>%s → %s: %d tags from %s%s. Reference %s</small>
</div>
<p><a class="btn" href="%s" download="%s">Download %s</a></p>
<pre>%s</pre>
`,
			templ.EscapeString(data.Message),
			templ.EscapeString(data.Filename),
			templ.EscapeString(data.OutputFilename),
			data.TagCount,
			templ.EscapeString(strings.ToUpper(data.Format)),
			cached,
			templ.EscapeString(data.ConversionID),
			templ.EscapeString(href),
			templ.EscapeString(data.OutputFilename),
			templ.EscapeString(data.OutputFilename),
			templ.EscapeString(string(data.Output)),
		)
		return err
	})
}

// ErrorAlert renders an error message with the suggested action and the
// support code.
func ErrorAlert(title, message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="alert alert-error" role="alert">`); err != nil {
			return err
		}
		if title != "" {
			if _, err := fmt.Fprintf(w, "<strong>%s</strong> ", templ.EscapeString(title)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, templ.EscapeString(message)); err != nil {
			return err
		}
		if action != "" || code != "" {
			if _, err := fmt.Fprintf(w, "<small>%s (Code: %s)</small>",
				templ.EscapeString(action), templ.EscapeString(code)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</div>\n")
		return err
	})
}
