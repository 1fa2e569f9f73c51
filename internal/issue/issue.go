// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	BundleFileInvalidId Id = iota + 1
	BundleNameMissingId
	MandatoryFileMissingId
	UnknownArtifactTypeId
	CharmOptionOnBundleId
	ProjectConfigInvalidId
	CharmArgumentsInvalidId
	DestructiveModeRequiredId
	BasesIndexInvalidId
	LifecycleFailedId
	ArchiveWriteFailedId
	ConfigLoadFailedId
	PermissionDeniedId
	LintFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // appended under "See also"
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the issue with glamour using the given style ("dark",
// "light", "notty" or a style file path).
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

const bundleDocs HttpLink = "https://juju.is/docs/sdk/bundles"

var (
	render = glamour.Render

	bundleFileInvalidIssue = &Issue{
		id: BundleFileInvalidId,
		mdMsg: `
# Missing or invalid bundle.yaml!

Packing a bundle starts from ` + "`bundle.yaml`" + ` at the project root. The file is
missing, unreadable, or its top level is not a mapping.

## Things you can try:
- Export the bundle from a running model:
~~~
$ juju export-bundle > bundle.yaml
~~~

- Check the YAML syntax; the document must be a mapping of keys to values`,
		docLinks: []HttpLink{bundleDocs},
	}

	bundleNameMissingIssue = &Issue{
		id: BundleNameMissingId,
		mdMsg: `
# Bundle name missing!

` + "`bundle.yaml`" + ` has no ` + "`name`" + `. The name decides the archive file name
(` + "`<name>.zip`" + `).

## Things you can try:
~~~yaml
name: my-bundle
~~~`,
		docLinks: []HttpLink{bundleDocs},
	}

	mandatoryFileMissingIssue = &Issue{
		id: MandatoryFileMissingId,
		mdMsg: `
# Mandatory bundle file missing!

Every bundle ships ` + "`bundle.yaml`" + ` and ` + "`README.md`" + ` from the project root.

## Things you can try:
- Create the missing file next to charmcraft.yaml
- Declare your own parts in charmcraft.yaml if the bundle is assembled differently`,
		docLinks: []HttpLink{bundleDocs},
	}

	unknownArtifactTypeIssue = &Issue{
		id: UnknownArtifactTypeId,
		mdMsg: `
# Unknown project type!

The ` + "`type`" + ` key in charmcraft.yaml selects what gets packed.

## Valid values:
- ` + "`charm`" + `
- ` + "`bundle`",
	}

	charmOptionOnBundleIssue = &Issue{
		id: CharmOptionOnBundleId,
		mdMsg: `
# Option not valid for bundles!

` + "`--entrypoint`" + ` and ` + "`--requirement`" + ` only apply when packing a charm.

## Things you can try:
- Drop the option and pack again
- Set ` + "`type: charm`" + ` in charmcraft.yaml if this project is a charm`,
	}

	projectConfigInvalidIssue = &Issue{
		id: ProjectConfigInvalidId,
		mdMsg: `
# Invalid charmcraft.yaml!

The project configuration failed validation. The error above names the
offending field.

## Things you can try:
- Check that ` + "`parts`" + ` maps part names to mappings
- Check that every base has a ` + "`name`" + ` and a ` + "`channel`",
	}

	charmArgumentsInvalidIssue = &Issue{
		id: CharmArgumentsInvalidId,
		mdMsg: `
# Invalid charm inputs!

The charm entry point must be an executable file inside the project, and
every requirements file must exist.

## Things you can try:
~~~
$ chmod +x src/charm.py
$ charmpack pack --entrypoint src/charm.py --requirement requirements.txt
~~~`,
	}

	destructiveModeRequiredIssue = &Issue{
		id: DestructiveModeRequiredId,
		mdMsg: `
# Destructive mode required!

Charms are built directly on this host. Building may install packages and
change system configuration.

## Things you can try:
~~~
$ charmpack pack --destructive-mode
~~~`,
	}

	basesIndexInvalidIssue = &Issue{
		id: BasesIndexInvalidId,
		mdMsg: `
# No such base!

` + "`--bases-index`" + ` selects entries of ` + "`bases`" + ` in charmcraft.yaml, starting at 0.

## Things you can try:
- List the bases in charmcraft.yaml and pick an existing index
- Omit the flag to build every base`,
	}

	lifecycleFailedIssue = &Issue{
		id: LifecycleFailedId,
		mdMsg: `
# Parts lifecycle failed!

A part failed while pulling, building, staging or priming.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see every step
- Re-run with ` + "`--debug`" + ` to get a shell in the build environment on failure
- Check ` + "`plugin`" + ` values: nil, dump, bundle and charm are supported`,
	}

	archiveWriteFailedIssue = &Issue{
		id: ArchiveWriteFailedId,
		mdMsg: `
# Could not write the archive!

The prime directory was built but the archive could not be written.

## Things you can try:
- Check free disk space
- Check that the project directory is writable`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The charmpack configuration file could not be parsed.

## Things you can try:
- Show the file in use:
~~~
$ charmpack config path
~~~

- Fix the CUE syntax or remove the file to fall back to defaults`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Things you can try:
- Check file and directory permissions in the project
- Make sure the build directory is owned by you
- Run charmpack from a directory you own`,
	}

	lintFailedIssue = &Issue{
		id: LintFailedId,
		mdMsg: `
# Charm failed lint checks!

The primed charm was inspected before archiving and at least one check
reported an error. Warnings are logged but never stop packing.

## Things you can try:
- Keep ` + "`metadata.yaml`" + ` in the primed tree and give it a ` + "`name`" + `
- Check the ` + "`prime`" + ` filters of your parts
- Pack anyway:
~~~
$ charmpack pack --destructive-mode --force
~~~`,
	}

	issues = map[Id]*Issue{
		bundleFileInvalidIssue.Id():       bundleFileInvalidIssue,
		bundleNameMissingIssue.Id():       bundleNameMissingIssue,
		mandatoryFileMissingIssue.Id():    mandatoryFileMissingIssue,
		unknownArtifactTypeIssue.Id():     unknownArtifactTypeIssue,
		charmOptionOnBundleIssue.Id():     charmOptionOnBundleIssue,
		projectConfigInvalidIssue.Id():    projectConfigInvalidIssue,
		charmArgumentsInvalidIssue.Id():   charmArgumentsInvalidIssue,
		destructiveModeRequiredIssue.Id(): destructiveModeRequiredIssue,
		basesIndexInvalidIssue.Id():       basesIndexInvalidIssue,
		lifecycleFailedIssue.Id():         lifecycleFailedIssue,
		archiveWriteFailedIssue.Id():      archiveWriteFailedIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		permissionDeniedIssue.Id():        permissionDeniedIssue,
		lintFailedIssue.Id():              lintFailedIssue,
	}
)

// Values returns every catalog issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
