package ops

import (
    "context"

    "github.com/local/pdftoolkit/internal/assembler"
    "github.com/local/pdftoolkit/internal/pagerange"
    "github.com/local/pdftoolkit/internal/selection"
)

// Merge concatenates the given sources in caller order, every page of each.
// The caller controls the order; rearranging happens before this call.
func (r *Runner) Merge(ctx context.Context, refs []string) (*Result, error) {
    return r.run(ctx, "merge", func(ctx context.Context) (assembler.Plan, string, error) {
        filename := mergeFilename()
        if len(refs) < 2 {
            return nil, filename, ErrTooFewSources
        }
        plan := make(assembler.Plan, 0, len(refs))
        for _, ref := range refs {
            total, err := r.probe(ctx, ref)
            if err != nil {
                return nil, filename, err
            }
            // All pages of the document, in document order. In-range by
            // construction, so no validator call is needed here.
            plan = append(plan, assembler.Item{Source: ref, Pages: selection.FullRange(total)})
        }
        return plan, filename, nil
    })
}

// Split extracts the pages named by rangeText into a new document.
func (r *Runner) Split(ctx context.Context, ref, rangeText string) (*Result, error) {
    return r.run(ctx, "split", func(ctx context.Context) (assembler.Plan, string, error) {
        filename := splitFilename(ref, rangeText)
        pages := pagerange.Parse(rangeText)
        total, err := r.probe(ctx, ref)
        if err != nil {
            return nil, filename, err
        }
        if err := selection.Validate(pages, total, selection.Extract); err != nil {
            return nil, filename, err
        }
        return assembler.Plan{{Source: ref, Pages: pages}}, filename, nil
    })
}

// Remove rebuilds the document without the pages named by rangeText. The
// retained pages keep their original relative order.
func (r *Runner) Remove(ctx context.Context, ref, rangeText string) (*Result, error) {
    return r.run(ctx, "remove", func(ctx context.Context) (assembler.Plan, string, error) {
        filename := removeFilename(ref)
        pages := pagerange.Parse(rangeText)
        total, err := r.probe(ctx, ref)
        if err != nil {
            return nil, filename, err
        }
        if err := selection.Validate(pages, total, selection.Remove); err != nil {
            return nil, filename, err
        }
        kept := selection.Complement(pages, total)
        return assembler.Plan{{Source: ref, Pages: kept}}, filename, nil
    })
}
