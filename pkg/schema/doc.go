/*
Package schema decodes untrusted edit commands into the domain's tagged union.

Model output is loosely typed: numbers may arrive as floats or strings, fields
may be missing or hold the wrong shape. Decode is the single boundary where
that input is validated; everything past it works with domain.Command values.

	cmd, err := schema.Decode(raw)
	switch {
	case errors.Is(err, domain.ErrUnknownAction):
		// skip
	case err != nil:
		// malformed, see FieldErrors(err)
	}
*/
package schema
