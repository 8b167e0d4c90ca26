package mcpserver

// VaultConventions describes the vault conventions that LLM consumers must
// follow when writing notes. Served as both a tool and a resource so agents
// can read it before their first write.
const VaultConventions = `# Muninn Vault Conventions

Every note managed by Muninn MUST follow these conventions. The write_note
tool enforces them; read this document to understand what it will and will
not accept.

## Note identity

- Every note is named by a 14-digit timestamp ID: ` + "`YYYYMMDDHHmmss`" + ` (e.g.
  ` + "`20240115103000`" + `). The ID is the filename stem and the frontmatter ` + "`id`" + `.
- IDs are allocated by the server, never by the caller. One note per second;
  collisions wait for the next second.

## Folders

Notes live only in the declared folders. Each folder accepts specific note
types:

| Folder | Types |
|---|---|
| 00 - Inbox/00a - Active | thought, todo |
| 00 - Inbox/00b - Backlog | thought, todo |
| 00 - Inbox/00c - Clippings | clipping |
| 00 - Inbox/00d - Documents | clipping, resource |
| 00 - Inbox/00e - Excalidraw | clipping |
| 00 - Inbox/00r - Research | thought, note |
| 00 - Inbox/00t - Thoughts | thought |
| 00 - Inbox/00v - Video | clipping |
| 01 - Notes/01a - Atomic | note |
| 01 - Notes/01m - Meetings | note |
| 01 - Notes/01r - Research | note |
| 02 - MOCs | moc |
| 03 - Projects/03b - Personal | project |
| 03 - Projects/03c - Work | project |
| 03 - Projects/03p - PRPs | note |
| 04 - Areas | area |
| 05 - Resources/05c - Clippings | clipping |
| 05 - Resources/05d - Documents | resource |
| 05 - Resources/05e - Examples | resource |
| 05 - Resources/05l - Learning | resource, clipping |
| 05 - Resources/05r - Repos | resource |
| 05 - Resources/05v - Video | clipping |

Writes to any other folder, or with a type the folder does not accept, are
rejected.

## Frontmatter

` + "```" + `markdown
---
id: "20240115103000"
type: Note
tags:
  - distributed-systems
  - clocks
created: 2024-01-15
updated: 2024-01-15
permalink: 01-notes/01a-atomic/20240115103000
---

# Vector Clocks

Body text in standard Markdown.
` + "```" + `

1. **Frontmatter is mandatory** and is generated by the server. Callers
   supply title, content, folder, type, and tags; everything else is derived.
2. **Tags** are normalized to lowercase kebab-case: spaces and underscores
   become hyphens, punctuation is dropped (` + "`Machine Learning`" + ` becomes
   ` + "`machine-learning`" + `).
3. **Permalinks** are the folder slug plus the ID, all lowercase.
4. **Dates** are ` + "`YYYY-MM-DD`" + `.

## Linking

- Use ` + "`[[20240115103000]]`" + ` wiki-links to reference other notes by ID.
- Maps of Content (MOCs) in ` + "`02 - MOCs`" + ` collect links for a tag once
  enough notes share it (default threshold 12). Use the create_moc tool
  rather than writing MOCs by hand.

## Capture workflow

- Raw captures go through process_inbox_item: the server detects whether the
  content is a URL, code, or a thought, picks the folder, and suggests tags
  from the vocabulary already in use.
- Suggested tags only ever come from existing notes. To introduce a brand
  new tag, pass it explicitly to write_note.
`
