// Package errors classifies langexport failures.
//
// A ClassifiedError carries a category, a severity and a retry strategy. The
// export pipeline uses the severity to decide whether a failure aborts the run;
// the CLI maps the category to an exit code and the preview server to an HTTP
// status.
//
//	err := errors.WrapError(ioErr, errors.CategoryFileSystem, "failed to move language root").
//		WithContext("lang", "ua").
//		Fatal().
//		Build()
package errors
