/*
Package domain contains the core document model of the easel canvas editor.

It defines the entities that edit commands operate on and the commands
themselves. This package is kept pure and free of external dependencies like
I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - TextElement: A positioned, styled text box on the canvas.
  - Document: The ordered set of elements (insertion order is paint order).
  - Canvas: Fixed dimensions plus the per-axis footprint allowance used for clamping.
  - Command: A decoded edit instruction (Create, Modify, Move, Delete).
  - Report: The per-command outcomes of one batch application.
*/
package domain
