/*
Package orchestrator turns natural-language instructions into model calls.

RequestEdit asks the model for edit commands against a canvas context and
records the exchange in the session's chat history. TransformSlide asks the
model to rewrite a whole slide given as HTML and CSS. Neither applies anything:
callers hand the returned commands to the runtime interpreter.
*/
package orchestrator
