package selection

import (
    "errors"
    "reflect"
    "testing"

    "github.com/local/pdftoolkit/internal/pagerange"
)

func TestValidateExtract(t *testing.T) {
    if err := Validate(pagerange.PageSet{1, 5, 9}, 10, Extract); err != nil {
        t.Fatalf("expected success, got %v", err)
    }

    err := Validate(pagerange.PageSet{1, 11}, 10, Extract)
    var oor *OutOfRangeError
    if !errors.As(err, &oor) {
        t.Fatalf("expected OutOfRangeError, got %v", err)
    }
    if !reflect.DeepEqual(oor.Pages, []int{11}) {
        t.Errorf("offending pages = %v, want [11]", oor.Pages)
    }
}

func TestValidateEmpty(t *testing.T) {
    if err := Validate(pagerange.PageSet{}, 10, Extract); !errors.Is(err, ErrEmptySelection) {
        t.Fatalf("expected ErrEmptySelection, got %v", err)
    }
}

func TestValidateBelowOne(t *testing.T) {
    err := Validate(pagerange.PageSet{0, 2}, 10, Extract)
    var oor *OutOfRangeError
    if !errors.As(err, &oor) {
        t.Fatalf("expected OutOfRangeError, got %v", err)
    }
    if !reflect.DeepEqual(oor.Pages, []int{0}) {
        t.Errorf("offending pages = %v, want [0]", oor.Pages)
    }
}

func TestValidateRemoveAll(t *testing.T) {
    err := Validate(pagerange.PageSet{1, 2, 3, 4, 5}, 5, Remove)
    if !errors.Is(err, ErrWouldRemoveAllPages) {
        t.Fatalf("expected ErrWouldRemoveAllPages, got %v", err)
    }
    // Removing a strict subset is fine.
    if err := Validate(pagerange.PageSet{2, 4}, 5, Remove); err != nil {
        t.Fatalf("expected success, got %v", err)
    }
}

func TestComplement(t *testing.T) {
    got := Complement(pagerange.PageSet{2, 4}, 5)
    want := pagerange.PageSet{1, 3, 5}
    if !reflect.DeepEqual(got, want) {
        t.Errorf("Complement = %v, want %v", got, want)
    }
}

func TestFullRange(t *testing.T) {
    got := FullRange(3)
    want := pagerange.PageSet{1, 2, 3}
    if !reflect.DeepEqual(got, want) {
        t.Errorf("FullRange(3) = %v, want %v", got, want)
    }
}
