package internal

import "fmt"

type UnknownFormatError struct {
	Key  string
	Path string
	Err  error
}

func (e *UnknownFormatError) Error() string {
	switch {
	case e.Key != "":
		return fmt.Sprintf("unknown format %q", e.Key)
	case e.Err != nil:
		return fmt.Sprintf("no format resolves for %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("no format resolves for %s", e.Path)
}

func (e *UnknownFormatError) Unwrap() error { return e.Err }

type UnregisteredProcessorError struct {
	FormatKey string
	Family    string
	Err       error
}

func (e *UnregisteredProcessorError) Error() string {
	if e.Family != "" {
		return fmt.Sprintf("no processor registered for format %q (family %q)", e.FormatKey, e.Family)
	}
	return fmt.Sprintf("no processor registered for format %q", e.FormatKey)
}

func (e *UnregisteredProcessorError) Unwrap() error { return e.Err }

type WorkbookOpenError struct {
	Path string
	Err  error
}

func (e *WorkbookOpenError) Error() string {
	return fmt.Sprintf("open workbook %s: %v", e.Path, e.Err)
}

func (e *WorkbookOpenError) Unwrap() error { return e.Err }

type UnknownTransformError struct {
	Format string
	Name   string
}

func (e *UnknownTransformError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("format %q: unknown transform %q", e.Format, e.Name)
	}
	return fmt.Sprintf("unknown transform %q", e.Name)
}
