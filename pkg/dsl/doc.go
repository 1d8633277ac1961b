/*
Package dsl builds edit command batches in Go instead of hand-written maps.

The output has exactly the wire shape the model produces, so a batch built
here goes through the same decoding and validation as model output:

	batch := dsl.New()
	batch.Create("Quarterly Report").At(40, 30).FontSize(32).Bold()
	batch.Move("tb-1").By(0, 20)
	batch.Modify("tb-2").Color("#dc2626").Italic()
	batch.Delete("tb-3")

	res, err := editor.Apply(ctx, "default", batch.Build())
*/
package dsl
