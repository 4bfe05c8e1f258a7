package ops

import (
    "fmt"
    "path"
    "strings"
    "time"
)

// Download filename conventions:
// merge  -> merged-pdf-<ISO-date>.pdf
// split  -> <basename>-pages-<rangeTextNoSpaces>.pdf
// remove -> <basename>_pages_removed.pdf

func mergeFilename() string {
    return fmt.Sprintf("merged-pdf-%s.pdf", time.Now().Format("2006-01-02"))
}

func splitFilename(ref, rangeText string) string {
    return fmt.Sprintf("%s-pages-%s.pdf", baseName(ref), strings.ReplaceAll(rangeText, " ", ""))
}

func removeFilename(ref string) string {
    return fmt.Sprintf("%s_pages_removed.pdf", baseName(ref))
}

// baseName strips scheme noise, directories, fragments and the .pdf
// extension from a source ref.
func baseName(ref string) string {
    if i := strings.Index(ref, "#"); i >= 0 {
        ref = ref[:i]
    }
    for _, scheme := range []string{"file://", "s3://", "http://", "https://"} {
        if strings.HasPrefix(ref, scheme) {
            ref = strings.TrimPrefix(ref, scheme)
            break
        }
    }
    name := path.Base(strings.ReplaceAll(ref, "\\", "/"))
    name = strings.TrimSuffix(name, path.Ext(name))
    if name == "" || name == "." || name == "/" {
        return "document"
    }
    return name
}
