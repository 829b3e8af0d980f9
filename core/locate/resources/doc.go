/*
Package resources resolves the raw bytes of asset files for an application.

Asset loading never opens files itself: descriptors, images, shader sources
and sound files are read through a Reader, which is handed to the loading
components by the application. Two readers are provided, one for
directories of the operating system's file system and one for any fs.FS
(e.g., files embedded with go:embed).

Fonts may additionally be resolved by name, looking for system fonts in
the usual font directories of the platform.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package resources

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces to tracing key 'assets.resources'.
func tracer() tracing.Trace {
	return tracing.Select("assets.resources")
}
