// Package project manages workspace directories under the projects root.
//
// Each session gets its own workspace, named by a short slug derived from
// the task description. Generated artifacts and code land inside the
// workspace; nothing escapes it. Existing workspaces can be listed and
// their text files loaded back as seed context for a follow-up session.
package project
