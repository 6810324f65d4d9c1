package loadext

// LoadRaw calls the raw load primitive without touching the flag, so tests
// can check whether extension loading is still enabled.
func (l *Loader) LoadRaw(path, entryPoint string) error {
	req, err := Extension{Path: path, EntryPoint: entryPoint}.native()
	if err != nil {
		return err
	}
	return l.loadOne(req.file, req.proc)
}
