package easel_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/adapters/openai"
	"github.com/aretw0/easel/pkg/dsl"
	"github.com/aretw0/easel/pkg/orchestrator"
	"github.com/aretw0/easel/pkg/session"
)

// ExampleEditor_Apply edits a canvas directly. Apply never calls the model,
// so no API key is needed.
func ExampleEditor_Apply() {
	n := 0
	ed := easel.New(
		session.NewManager(memory.NewStore()),
		orchestrator.New(openai.New(os.Getenv("OPENAI_API_KEY"))),
		easel.WithIDGenerator(func() string { n++; return fmt.Sprintf("tb-%d", n) }),
	)
	ctx := context.Background()

	batch := dsl.New()
	batch.Create("Quarterly Report").At(40, 30).FontSize(32).Bold()
	batch.Create("Draft").At(900, 60)
	batch.Delete("tb-9")

	res, err := ed.Apply(ctx, session.DefaultSessionID, batch.Build())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("applied:", res.Report.Applied())
	for _, o := range res.Report.Outcomes {
		fmt.Println(o.Action, o.Status)
	}
	for _, el := range res.Elements {
		fmt.Printf("%s %q at (%d,%d)\n", el.ID, el.Content, el.X, el.Y)
	}

	// Output:
	// applied: 2
	// create applied
	// create applied
	// delete not_found
	// tb-1 "Quarterly Report" at (40,30)
	// tb-2 "Draft" at (640,60)
}
