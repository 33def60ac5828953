// Package build turns a directory of markdown posts into the static site.
//
// A build is one synchronous pass: load and classify every source document,
// check slugs, render each post page, then the home, listing and about
// pages from the sorted post collection. Any fault aborts the whole build;
// pages written before the fault stay on disk.
package build
