// Package editform renders audiobook metadata as an editable TOML document
// and reads the edited document back.
//
// Two renderings exist. RenderRecord shows a file's own tags for direct
// editing. Render shows merged lookup results: agreed values are annotated
// with the sources that supplied them and conflicting fields list every
// alternative as a commented line, with the selected one left live. Parse
// accepts either rendering because all annotations are TOML comments.
package editform
