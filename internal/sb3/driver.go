package sb3

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/goboscript/goboc/internal/ast"
	"github.com/goboscript/goboc/internal/cache"
	"github.com/goboscript/goboc/internal/config"
	"github.com/goboscript/goboc/internal/diag"
)

// Version is embedded in every emitted project's meta.agent field.
const Version = "0.1.0"

// Sb3 drives emission of a whole Project into a .sb3 archive. Per spec
// section 5, only the archive writer and the asset registry are shared
// across targets; everything else (id factory, diagnostic sink, per-target
// emitter state) is constructed fresh per target.
type Sb3 struct {
	zw         *zip.Writer
	assets     *AssetRegistry
	broadcasts []string
	Config     *config.TurbowarpConfig

	Sinks map[string]*diag.Sink
}

func New(w io.Writer, assetCache *cache.Cache) *Sb3 {
	return &Sb3{
		zw:     zip.NewWriter(w),
		assets: NewAssetRegistry(assetCache),
		Sinks:  map[string]*diag.Sink{},
	}
}

// Emit writes project.json, then every unique costume asset, then closes
// the archive (spec 5: the project entry is opened once and written
// linearly; asset entries follow in sequence).
func (d *Sb3) Emit(proj *ast.Project) error {
	d.broadcasts = collectBroadcasts(proj)

	pw, err := d.zw.Create("project.json")
	if err != nil {
		return err
	}
	if err := d.writeProjectJSON(pw, proj); err != nil {
		return err
	}
	if err := d.assets.Flush(func(name string) (io.Writer, error) {
		return d.zw.Create(name)
	}); err != nil {
		return err
	}
	return d.zw.Close()
}

func (d *Sb3) writeProjectJSON(w io.Writer, proj *ast.Project) error {
	ew := &errWriter{w: w}
	ew.str(`{"targets":[`)

	order := append([]string{ast.StageName}, proj.SpriteOrder...)
	for i, name := range order {
		sprite := proj.Stage
		isStage := true
		if name != ast.StageName {
			sprite = proj.Sprites[name]
			isStage = false
		}
		if i > 0 {
			ew.str(",")
		}
		d.writeTarget(ew, proj.Stage, sprite, isStage)
	}
	ew.printf(`],"monitors":[],"extensions":[],"meta":{"semver":"3.0.0","vm":"0.2.0","agent":%s}}`,
		jsonString("goboscript v"+Version))
	return ew.err
}

func (d *Sb3) writeTarget(ew *errWriter, stage, sprite *ast.Sprite, isStage bool) {
	sink := diag.NewSink(sprite.Name)
	d.Sinks[sprite.Name] = sink
	nameScope := stageOrNil(stage, isStage)

	e := newEmitter(sink, NewIDFactory(), nameScope, sprite)
	for _, ev := range sprite.Events {
		e.emitEvent(e.scope(), isStage, ev)
	}
	for _, name := range sortedKeys(sprite.Procs) {
		if !sprite.UsedProcs[name] {
			continue
		}
		proc := sprite.Procs[name]
		e.emitCallable(proc.Name, proc.Args, proc.Warp, sprite.ProcDefinitions[name], e.scopeInProc(proc))
	}
	for _, name := range sortedKeys(sprite.Funcs) {
		if !sprite.UsedFuncs[name] {
			continue
		}
		fn := sprite.Funcs[name]
		e.emitCallable(fn.Name, fn.Args, true, sprite.FuncDefinitions[name], e.scopeInFunc(fn))
	}

	reportUnused(sink, sprite)
	if len(sprite.Costumes) == 0 {
		sink.Report(diag.Diagnostic{Kind: diag.NoCostumes})
	}

	vars := DeclareVars(sink, nameScope, sprite)
	lists := DeclareLists(sink, nameScope, sprite)

	ew.printf(`{"isStage":%t,"name":%s`, isStage, jsonString(sprite.Name))
	if isStage {
		d.writeComments(ew)
		d.writeBroadcasts(ew)
	}
	ew.str(`,"variables":{`)
	writeVars(ew, vars)
	ew.str(`},"lists":{`)
	writeLists(ew, lists)
	ew.str(`},"blocks":{`)
	ew.str(e.blocksJSON())
	ew.str(`},"costumes":[`)
	d.writeCostumes(ew, sink, sprite)
	ew.str(`],"sounds":[]}`)
}

func (d *Sb3) writeComments(ew *errWriter) {
	if d.Config == nil {
		return
	}
	ew.printf(`,"comments":{"twconfig":{"blockId":null,"x":0,"y":0,"width":200,"height":200,"minimized":false,"text":%s}}`,
		jsonString(d.Config.Comment()))
}

func (d *Sb3) writeBroadcasts(ew *errWriter) {
	ew.str(`,"broadcasts":{`)
	for i, name := range d.broadcasts {
		if i > 0 {
			ew.str(",")
		}
		ew.printf(`%s:%s`, jsonString(name), jsonString(name))
	}
	ew.str("}")
}

func (d *Sb3) writeCostumes(ew *errWriter, sink *diag.Sink, sprite *ast.Sprite) {
	for i, c := range sprite.Costumes {
		hash := d.assets.Register(sink, c.Span, c.Path)
		ext := Ext(c.Path)
		if i > 0 {
			ew.str(",")
		}
		ew.printf(`{"name":%s,"assetId":%s,"bitmapResolution":1,"dataFormat":%s,"md5ext":%s}`,
			jsonString(c.Name), jsonString(hash), jsonString(ext), jsonString(hash+"."+ext))
	}
}

func writeVars(ew *errWriter, vars []VarEntry) {
	for i, v := range vars {
		if i > 0 {
			ew.str(",")
		}
		if v.IsCloud {
			ew.printf(`%s:[%s,0,true]`, jsonString(v.Key), jsonString(v.Display))
		} else {
			ew.printf(`%s:[%s,0]`, jsonString(v.Key), jsonString(v.Display))
		}
	}
}

func writeLists(ew *errWriter, lists []ListEntry) {
	for i, l := range lists {
		if i > 0 {
			ew.str(",")
		}
		contents := l.Contents
		if contents == nil {
			contents = []string{}
		}
		ew.printf(`%s:[%s,%s]`, jsonString(l.Key), jsonString(l.Display), jsonMarshal(contents))
	}
}

// reportUnused walks the sprite's usage-tracking maps (populated upstream by
// name resolution, out of scope here — spec.md §1) and reports the Unused*
// family of non-blocking diagnostics.
func reportUnused(sink *diag.Sink, sprite *ast.Sprite) {
	for _, name := range sortedKeys(sprite.Procs) {
		if !sprite.UsedProcs[name] {
			sink.Report(diag.Diagnostic{Kind: diag.UnusedProc, Span: sprite.Procs[name].Span, Name: name})
			continue
		}
		for _, arg := range sprite.Procs[name].Args {
			if !sprite.ProcUsedArgs[name][arg.Name] {
				sink.Report(diag.Diagnostic{Kind: diag.UnusedArg, Span: arg.Span, Name: arg.Name})
			}
		}
	}
	for _, name := range sortedKeys(sprite.Funcs) {
		if !sprite.UsedFuncs[name] {
			sink.Report(diag.Diagnostic{Kind: diag.UnusedFunc, Span: sprite.Funcs[name].Span, Name: name})
			continue
		}
		for _, arg := range sprite.Funcs[name].Args {
			if !sprite.FuncUsedArgs[name][arg.Name] {
				sink.Report(diag.Diagnostic{Kind: diag.UnusedArg, Span: arg.Span, Name: arg.Name})
			}
		}
	}
	for _, name := range sortedKeys(sprite.Structs) {
		st := sprite.Structs[name]
		if !st.IsUsed {
			sink.Report(diag.Diagnostic{Kind: diag.UnusedStruct, Span: st.Span, StructName: name})
		}
	}
	for _, name := range sortedKeys(sprite.Enums) {
		en := sprite.Enums[name]
		if !en.IsUsed {
			sink.Report(diag.Diagnostic{Kind: diag.UnusedEnum, Span: en.Span, EnumName: name})
		}
	}
}

func collectBroadcasts(proj *ast.Project) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	scan := func(sprite *ast.Sprite) {
		for _, ev := range sprite.Events {
			if ev.Kind.Tag == ast.EventOnBroadcast {
				add(ev.Kind.Event)
			}
		}
	}
	scan(proj.Stage)
	for _, name := range proj.SpriteOrder {
		scan(proj.Sprites[name])
	}
	return out
}

func stageOrNil(stage *ast.Sprite, isStage bool) *ast.Sprite {
	if isStage {
		return nil
	}
	return stage
}

// errWriter collapses a sequence of fallible writes into the archive into a
// single checked error, since the streaming emitter (spec 4.3) deliberately
// avoids buffering a tree it could otherwise validate incrementally.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) str(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
