package preview

import (
	"bytes"
	"fmt"
	"html/template"
)

var pageTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
.docx-preview-container { padding: 20px; background: white; max-width: 100%; font-family: 'Calibri', 'Arial', sans-serif; }
.docx-preview-container table { border-collapse: collapse; width: 100%; }
.docx-preview-container td { border: 1px solid #ddd; padding: 8px; }
.docx-preview-container p { margin: 0.5em 0; white-space: pre-wrap; }
</style>
</head>
<body>
{{.Body}}
<script>
document.querySelectorAll('mark[data-field-key]').forEach(function (mark) {
  var notify = function () {
    window.parent.postMessage({
      type: 'field-click',
      key: mark.getAttribute('data-field-key'),
      value: mark.getAttribute('data-field-value')
    }, '*');
  };
  mark.addEventListener('click', notify);
  mark.addEventListener('keydown', function (e) { if (e.key === 'Enter') notify(); });
});
</script>
</body>
</html>
`))

// Page wraps a rendered preview in a standalone HTML page whose markers post
// a field-click message to the embedding window.
func Page(title string, r *Result) ([]byte, error) {
	body, err := r.HTML()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body)})
	if err != nil {
		return nil, fmt.Errorf("failed to render preview page: %w", err)
	}
	return buf.Bytes(), nil
}
