//go:build !js_eval

package opts

// NewJSEvaluator returns nil unless the binary is built with the js_eval tag;
// NewEvaluator reports that as ErrNoEvaluator.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
