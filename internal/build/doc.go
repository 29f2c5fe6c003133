// Package build runs the sitebuilder pipeline: load the authored model, merge
// it against the cached baseline, normalize, fetch content, enrich, write the
// output tree, replace the baseline and publish.
//
// All execution paths (build, diff, watch) route through BuildService.
package build
