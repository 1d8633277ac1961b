/*
Package easel is a backend for editing a canvas of text boxes with natural language.

A user instruction is sent, together with a serialized view of the canvas, to a
language model. The model answers with a friendly message and a list of edit
commands (create, modify, move, delete) which the interpreter applies to the
session's document, one by one and best-effort.

# Architecture

  - pkg/domain: the document model (elements, styles, canvas bounds, commands).
  - internal/runtime: the command interpreter and the context serializer.
  - pkg/orchestrator: prompts, model calls and reply parsing.
  - pkg/session: one live document per session, with serialized access.
  - pkg/adapters: HTTP, MCP, OpenAI and the snapshot/history stores.

# Usage

	gen := openai.New(os.Getenv("OPENAI_API_KEY"))
	ed := easel.New(
		session.NewManager(memory.NewStore()),
		orchestrator.New(gen, orchestrator.WithHistory(memory.NewHistory())),
		easel.WithKeyStore(gen),
	)

	res, err := ed.Chat(ctx, easel.ChatRequest{
		SessionID:   "default",
		Instruction: "Add a bold title at the top",
		Apply:       true,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Message, res.Report.Applied())
*/
package easel
