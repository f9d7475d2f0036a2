package mcpserver

// NoteFormatContract describes the Markdown format accepted by the vault
// inbox and written by the exporter.
const NoteFormatContract = `# Notekeeper Note Format

Notes dropped into the vault inbox are imported with this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL – falls back to the first H1, then the file name
tags:                               # OPTIONAL – tag labels; unknown labels are created
  - groceries
---

Body text. Inline #tags are collected as well.
` + "```" + `

## Rules

1. The ` + "`" + `---` + "`" + ` fences must be the first thing in the file.
2. A title and a body are both required; a file without a body is rejected and left in the inbox.
3. Tag labels are matched case-insensitively against existing tags.
4. Imported files are moved to ` + "`" + `imported/` + "`" + ` inside the inbox.
5. Exported files carry ` + "`" + `id` + "`" + `, ` + "`" + `created` + "`" + `, ` + "`" + `modified` + "`" + ` and ` + "`" + `locked` + "`" + `; locked notes are exported without a body.
6. Encoding is UTF-8.

## Example

` + "```" + `markdown
---
title: Shopping
tags:
  - groceries
---

Milk, eggs and #bread.
` + "```" + `
`
