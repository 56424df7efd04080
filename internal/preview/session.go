package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/internal/render"
	"sitebuilder-backend/pkg/logger"
)

// State is the lifecycle state of a preview session.
type State string

const (
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateEditing   State = "editing"
	StateSaving    State = "saving"
	StateSaved     State = "saved"
	StateSaveError State = "save-error"
)

var (
	ErrNotLoaded      = errors.New("preview session is not loaded")
	ErrStaleLoad      = errors.New("load superseded by a newer request")
	ErrPageNotFound   = errors.New("page not found")
	ErrUnknownMessage = errors.New("unknown preview message")
)

// Store reads and writes the whole site document.
type Store interface {
	Load(ctx context.Context) (models.SiteDocument, error)
	Save(ctx context.Context, doc models.SiteDocument) error
}

// Selection is the block open in the inspector, optionally scoped to one of
// its columns.
type Selection struct {
	BlockID string `json:"block_id,omitempty"`
	Column  string `json:"column,omitempty"`
}

// Key returns the "blockId:columnKey" composite used by the editor UI.
func (s Selection) Key() string {
	if s.Column == "" {
		return s.BlockID
	}
	return s.BlockID + ":" + s.Column
}

// ParseSelection splits a composite selection key.
func ParseSelection(key string) Selection {
	id, column, _ := strings.Cut(strings.TrimSpace(key), ":")
	return Selection{BlockID: id, Column: column}
}

// InsertRequest adds a new block of Type at Index within Location. A nil
// Index appends.
type InsertRequest struct {
	Type     string
	Location blocks.Location
	Index    *int
}

// UpdateRequest edits a block's payload. Data is merged into the existing
// payload unless Replace is set; column keys in Data replace the child lists.
type UpdateRequest struct {
	Data    map[string]interface{}
	Theme   *models.Theme
	Replace bool
}

// Result reports the outcome of an editing operation.
type Result struct {
	Block    *models.Block `json:"block,omitempty"`
	Notice   string        `json:"notice,omitempty"`
	Revision int64         `json:"revision"`
}

// PageSummary lists a page of the loaded document.
type PageSummary struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	Key       string              `json:"key"`
	State     State               `json:"state"`
	Page      models.PageContent  `json:"page"`
	Pages     []PageSummary       `json:"pages"`
	Metadata  models.SiteMetadata `json:"metadata"`
	Hidden    []string            `json:"hidden_block_ids"`
	Selection Selection           `json:"selection"`
	Revision  int64               `json:"revision"`
	Dirty     bool                `json:"dirty"`
	Theme     render.ThemeState   `json:"theme"`
	Error     string              `json:"error,omitempty"`
	Preview   int                 `json:"preview_connections"`
}

const (
	defaultPageSlug = "home"

	noticeHeroRemoved = "A page can only have one hero block, the extra hero was removed."
	noticeHeroMoved   = "The hero block was moved to the top of the page."
)

// Session owns the editing state of one page and keeps every attached
// preview surface in sync with it. All state changes happen under one mutex;
// each change is followed by a full UPDATE_PREVIEW push of the normalized,
// projected block list. Saves run one at a time under saveMu, which the hub
// shares between its sessions.
type Session struct {
	key      string
	store    Store
	registry *blocks.Registry
	renderer *render.Renderer

	mu         sync.Mutex
	state      State
	loaded     bool
	document   models.SiteDocument
	pageIndex  int
	blocks     []models.Block
	hidden     blocks.HiddenSet
	selection  Selection
	theme      render.ThemeState
	revision   int64
	version    int64
	saved      int64
	loadSeq    uint64
	edited     map[string]int64
	saving     int
	saveMu     *sync.Mutex
	lastErr    error
	lastActive time.Time
	transports map[Transport]struct{}
}

// NewSession creates an unloaded session for key.
func NewSession(key string, store Store, registry *blocks.Registry, renderer *render.Renderer) *Session {
	initMetrics()
	return &Session{
		key:        key,
		store:      store,
		registry:   registry,
		renderer:   renderer,
		state:      StateLoading,
		hidden:     blocks.NewHiddenSet(),
		theme:      render.NewThemeState(models.ThemeAuto),
		edited:     make(map[string]int64),
		saveMu:     new(sync.Mutex),
		lastActive: time.Now(),
		transports: make(map[Transport]struct{}),
	}
}

func (s *Session) Key() string {
	return s.key
}

// Load fetches the document and opens slug, or the first page when slug is
// empty. Only the most recent Load (or ChangePage) may apply its result;
// older responses return ErrStaleLoad.
func (s *Session) Load(ctx context.Context, slug string) error {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.state = StateLoading
	s.touch()
	s.mu.Unlock()

	doc, err := s.store.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.loadSeq {
		return ErrStaleLoad
	}
	if err != nil {
		s.lastErr = err
		if s.loaded {
			s.state = StateReady
		}
		return fmt.Errorf("load content: %w", err)
	}

	if len(doc.Pages) == 0 {
		doc.Pages = []models.PageContent{{Slug: defaultPageSlug, Title: "Home", Blocks: []models.Block{}}}
	}
	index := pageIndex(doc, slug)
	if index < 0 {
		if s.loaded {
			s.state = StateReady
		}
		return ErrPageNotFound
	}

	s.document = doc.Clone()
	s.openPage(index)
	s.loaded = true
	s.lastErr = nil
	s.saved = s.version
	s.edited = make(map[string]int64)
	s.theme = render.NewThemeState(models.ParseTheme(string(doc.Metadata.UserTheme)))
	s.state = StateReady

	logger.Info("Preview session loaded", map[string]interface{}{
		"session": s.key,
		"page":    s.document.Pages[index].Slug,
		"blocks":  len(s.blocks),
	})

	s.push()
	return nil
}

// ChangePage keeps the current page's edits in the session document and
// switches to slug. Any load still in flight is discarded.
func (s *Session) ChangePage(slug string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return Result{}, err
	}
	index := pageIndex(s.document, slug)
	if index < 0 || strings.TrimSpace(slug) == "" {
		return Result{}, ErrPageNotFound
	}

	s.loadSeq++
	s.commitPage()
	s.openPage(index)
	s.theme = render.NewThemeState(s.theme.UserTheme)
	s.state = StateReady
	s.touch()
	s.push()

	return Result{Revision: s.revision}, nil
}

// InsertBlock creates a block from its registered defaults and inserts it.
// The returned notice is set when hero enforcement changed the page.
func (s *Session) InsertBlock(req InsertRequest) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return Result{}, err
	}

	block, err := s.registry.CreateInstance(req.Type, "")
	if err != nil {
		return Result{}, err
	}

	index := -1
	if req.Index != nil {
		index = *req.Index
	}
	list, err := blocks.Insert(s.blocks, req.Location, index, block)
	if err != nil {
		return Result{}, err
	}

	notice := s.applyNormalized(list)
	result := s.changed(notice)
	if inserted, _, ok := blocks.Find(s.blocks, block.ID); ok {
		result.Block = &inserted
	}
	return result, nil
}

// DeleteBlock removes a block and its children. Their ids leave the hidden
// set and the selection is cleared when it pointed into the removed subtree.
func (s *Session) DeleteBlock(id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return Result{}, err
	}

	list, removed, err := blocks.Remove(s.blocks, id)
	if err != nil {
		return Result{}, err
	}

	blocks.Walk([]models.Block{removed}, func(block models.Block, _ blocks.Position) bool {
		delete(s.hidden, block.ID)
		if s.selection.BlockID == block.ID {
			s.selection = Selection{}
			if s.state == StateEditing {
				s.state = StateReady
			}
		}
		return true
	})

	notice := s.applyNormalized(list)
	return s.changed(notice), nil
}

// ReorderBlocks reorders the root list by ids.
func (s *Session) ReorderBlocks(ids []string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return Result{}, err
	}

	notice := s.applyNormalized(blocks.Reorder(s.blocks, ids))
	return s.changed(notice), nil
}

// MoveBlock moves a block to index within another list, including between
// columns and between a column and the root.
func (s *Session) MoveBlock(id string, to blocks.Location, index int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return Result{}, err
	}

	list, err := blocks.Move(s.blocks, id, to, index)
	if err != nil {
		return Result{}, err
	}

	notice := s.applyNormalized(list)
	return s.changed(notice), nil
}

// DuplicateBlock inserts a deep copy right after the block. The copy and its
// children get fresh ids. Hero blocks cannot be duplicated.
func (s *Session) DuplicateBlock(id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return Result{}, err
	}

	original, pos, ok := blocks.Find(s.blocks, id)
	if !ok {
		return Result{}, blocks.ErrBlockNotFound
	}
	if original.IsHero() {
		return Result{Notice: noticeHeroRemoved, Revision: s.revision}, nil
	}

	copyBlock := blocks.ClearIDs(original)
	copyBlock.ID = ""

	list, err := blocks.Insert(s.blocks, pos.Location, pos.Index+1, copyBlock)
	if err != nil {
		return Result{}, err
	}

	notice := s.applyNormalized(list)
	result := s.changed(notice)
	if dup, found := blockAt(s.blocks, pos.Location, pos.Index+1); found {
		result.Block = &dup
	}
	return result, nil
}

// ToggleVisibility flips the hidden flag of a block. Hidden blocks stay in the
// authoritative list and are only left out of the preview.
func (s *Session) ToggleVisibility(id string) (bool, Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return false, Result{}, err
	}
	if !blocks.Contains(s.blocks, id) {
		return false, Result{}, blocks.ErrBlockNotFound
	}

	hidden := s.hidden.Toggle(id)
	return hidden, s.changed(""), nil
}

// UpdateBlock edits a block wherever it sits in the tree.
func (s *Session) UpdateBlock(id string, req UpdateRequest) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return Result{}, err
	}

	list, err := blocks.Update(s.blocks, id, func(block models.Block) models.Block {
		return applyUpdate(block, req)
	})
	if err != nil {
		return Result{}, err
	}

	notice := s.applyNormalized(list)
	result := s.changed(notice)
	if updated, _, ok := blocks.Find(s.blocks, id); ok {
		result.Block = &updated
	}
	return result, nil
}

// Select opens the inspector for a block and highlights it in the preview.
func (s *Session) Select(id, column string) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return Selection{}, err
	}
	block, _, ok := blocks.Find(s.blocks, id)
	if !ok {
		return Selection{}, blocks.ErrBlockNotFound
	}
	column = strings.TrimSpace(column)
	if column != "" {
		if _, exists := block.Columns[column]; !exists {
			return Selection{}, blocks.ErrInvalidColumn
		}
	}

	s.selectBlock(Selection{BlockID: block.ID, Column: column})
	return s.selection, nil
}

// ClearSelection closes the inspector.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	s.selection = Selection{}
	if s.state == StateEditing {
		s.state = StateReady
	}
	s.send(MessageHighlightBlock, BlockPayload{})
}

// ScrollTo asks the preview to bring a block into view.
func (s *Session) ScrollTo(id string, alignToTop bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return err
	}
	if !blocks.Contains(s.blocks, id) {
		return blocks.ErrBlockNotFound
	}
	s.touch()
	s.send(MessageScrollToBlock, ScrollPayload{BlockID: id, AlignToTop: alignToTop})
	return nil
}

// Save writes the pages edited in this session through the store. The stored
// document is reloaded first and only edited pages replace their stored
// versions, so pages saved by other sessions are kept. Saves are serialized:
// a later Save waits for the one in flight and then writes the newer state.
// Editing may continue meanwhile. On failure the session keeps its in-memory
// state untouched so the save can be retried.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if err := s.ensureLoaded(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.saving++
	s.state = StateSaving
	s.touch()
	s.mu.Unlock()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.commitPage()
	pages := s.editedPages()
	version := s.version
	s.mu.Unlock()

	start := time.Now()
	merged, err := s.persist(ctx, pages)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving--

	if err != nil {
		saveDurationSecs.WithLabelValues("error").Observe(time.Since(start).Seconds())
		s.lastErr = err
		if s.saving == 0 {
			s.state = StateSaveError
		}
		logger.Error(err, "Preview session save failed", map[string]interface{}{"session": s.key})
		return err
	}

	saveDurationSecs.WithLabelValues("success").Observe(time.Since(start).Seconds())
	if version > s.saved {
		s.saved = version
	}
	for slug, edit := range s.edited {
		if edit <= version {
			delete(s.edited, slug)
		}
	}
	s.adoptStored(merged)
	s.lastErr = nil
	if s.saving == 0 {
		s.state = s.settledState()
	}
	logger.Info("Preview session saved", map[string]interface{}{
		"session": s.key,
		"pages":   len(pages),
	})
	return nil
}

// persist merges pages into the stored document and writes it back.
func (s *Session) persist(ctx context.Context, pages []models.PageContent) (models.SiteDocument, error) {
	current, err := s.store.Load(ctx)
	if err != nil {
		return models.SiteDocument{}, fmt.Errorf("load content for save: %w", err)
	}
	merged := mergePages(current, pages)
	if err := s.store.Save(ctx, merged); err != nil {
		return models.SiteDocument{}, fmt.Errorf("save content: %w", err)
	}
	return merged, nil
}

// HandleMessage processes a message sent by a preview surface. Messages that
// reference blocks no longer present are ignored.
func (s *Session) HandleMessage(msg Message) error {
	messagesTotal.WithLabelValues("in", string(msg.Type)).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch msg.Type {
	case MessageIframeReady:
		if s.loaded {
			s.push()
		}
		return nil

	case MessageBlockClicked:
		var payload BlockPayload
		if err := msg.Decode(&payload); err != nil {
			return err
		}
		block, _, ok := blocks.Find(s.blocks, payload.BlockID)
		if !s.loaded || !ok {
			logger.Debug("Ignoring click on unknown block", map[string]interface{}{
				"session":  s.key,
				"block_id": payload.BlockID,
			})
			return nil
		}
		s.selectBlock(Selection{BlockID: block.ID})
		return nil

	case MessageBlockVisibility:
		var payload VisibilityPayload
		if err := msg.Decode(&payload); err != nil {
			return err
		}
		s.observeVisibility(payload)
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnknownMessage, msg.Type)
	}
}

// Attach registers a preview surface and sends it the current snapshot.
func (s *Session) Attach(t Transport) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transports[t] = struct{}{}
	s.touch()
	if !s.loaded {
		return
	}
	msg, err := s.buildUpdate()
	if err != nil {
		s.dropUpdate(err)
		return
	}
	s.deliver(t, msg)
}

// Detach unregisters a preview surface.
func (s *Session) Detach(t Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transports, t)
}

// Close detaches and closes every preview surface.
func (s *Session) Close() {
	s.mu.Lock()
	transports := s.transports
	s.transports = make(map[Transport]struct{})
	s.mu.Unlock()

	for t := range transports {
		_ = t.Close()
	}
}

// IdleFor reports how long the session has gone without activity.
func (s *Session) IdleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.transports) > 0 {
		return 0
	}
	return now.Sub(s.lastActive)
}

// Dirty reports whether there are edits that have not been saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version != s.saved
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Key:       s.key,
		State:     s.state,
		Hidden:    s.hidden.Sorted(),
		Selection: s.selection,
		Revision:  s.revision,
		Dirty:     s.version != s.saved,
		Theme:     s.theme,
		Preview:   len(s.transports),
		Pages:     []PageSummary{},
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	if !s.loaded {
		return snap
	}

	page := s.document.Pages[s.pageIndex]
	page.Blocks = blocks.AnnotateHidden(s.blocks, s.hidden)
	snap.Page = page
	snap.Metadata = s.document.Clone().Metadata
	for _, p := range s.document.Pages {
		snap.Pages = append(snap.Pages, PageSummary{Slug: p.Slug, Title: p.Title})
	}
	return snap
}

func (s *Session) ensureLoaded() error {
	if !s.loaded {
		return ErrNotLoaded
	}
	return nil
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

// openPage makes page index the working page. Hidden flags of the stored
// blocks seed the hidden set.
func (s *Session) openPage(index int) {
	s.pageIndex = index
	page := s.document.Pages[index]
	s.blocks = blocks.NormalizeBlocks(page.Blocks)
	s.hidden = blocks.HiddenFromBlocks(s.blocks)
	s.selection = Selection{}
}

// commitPage writes the working blocks back into the session document.
func (s *Session) commitPage() {
	if !s.loaded {
		return
	}
	s.document.Pages[s.pageIndex].Blocks = blocks.AnnotateHidden(s.blocks, s.hidden)
}

// applyNormalized normalizes list, installs it and returns a notice when
// normalization changed the hero layout.
func (s *Session) applyNormalized(list []models.Block) string {
	result := blocks.Normalize(list)
	s.blocks = result.Blocks

	switch {
	case len(result.RemovedHeroes) > 0:
		for _, id := range result.RemovedHeroes {
			delete(s.hidden, id)
		}
		return noticeHeroRemoved
	case result.Moved:
		return noticeHeroMoved
	default:
		return ""
	}
}

// changed records an edit and pushes the new snapshot.
func (s *Session) changed(notice string) Result {
	s.version++
	s.edited[pageKey(s.document.Pages[s.pageIndex].Slug)] = s.version
	s.touch()
	if s.state == StateSaved || s.state == StateSaveError {
		s.state = s.settledState()
	}
	s.push()
	return Result{Notice: notice, Revision: s.revision}
}

// settledState is the state of a session with no save in flight.
func (s *Session) settledState() State {
	switch {
	case s.selection.BlockID != "":
		return StateEditing
	case s.version != s.saved:
		return StateReady
	default:
		return StateSaved
	}
}

// editedPages copies the session's pages that have unsaved edits.
func (s *Session) editedPages() []models.PageContent {
	var pages []models.PageContent
	for _, page := range s.document.Clone().Pages {
		if _, ok := s.edited[pageKey(page.Slug)]; ok {
			pages = append(pages, page)
		}
	}
	return pages
}

// adoptStored refreshes pages without pending edits from a freshly written
// document. The working page is left alone.
func (s *Session) adoptStored(stored models.SiteDocument) {
	for _, page := range stored.Clone().Pages {
		if _, pending := s.edited[pageKey(page.Slug)]; pending {
			continue
		}
		index := s.document.FindPage(page.Slug)
		switch {
		case index == s.pageIndex:
		case index < 0:
			s.document.Pages = append(s.document.Pages, page)
		default:
			s.document.Pages[index] = page
		}
	}
	s.document.Metadata = stored.Clone().Metadata
}

func (s *Session) selectBlock(selection Selection) {
	s.selection = selection
	s.state = StateEditing
	s.touch()
	s.send(MessageHighlightBlock, BlockPayload{BlockID: selection.BlockID})
}

func (s *Session) observeVisibility(payload VisibilityPayload) {
	if !s.loaded {
		return
	}
	block, pos, ok := blocks.Find(s.blocks, payload.BlockID)
	if payload.Visible && (!ok || !pos.IsRoot() || s.hidden.Has(block.ID)) {
		return
	}

	event := render.VisibilityEvent{
		BlockID: payload.BlockID,
		Top:     payload.Top,
		Visible: payload.Visible,
	}
	if ok {
		event.Index = pos.Index
		event.Theme = render.InferTheme(block, s.theme.UserTheme)
	}

	previous := s.theme.Active
	s.theme = render.ReduceTheme(s.theme, event)
	if s.theme.Active != previous {
		s.send(MessageSetTheme, ThemePayload{Theme: s.theme.Active})
	}
}

// push sends UPDATE_PREVIEW to every attached surface. A payload that cannot
// be built is dropped; the session state is not affected.
func (s *Session) push() {
	if len(s.transports) == 0 {
		return
	}
	msg, err := s.buildUpdate()
	if err != nil {
		s.dropUpdate(err)
		return
	}
	for t := range s.transports {
		s.deliver(t, msg)
	}
}

func (s *Session) buildUpdate() (Message, error) {
	page := s.document.Pages[s.pageIndex]
	meta := s.document.Metadata
	templateName := page.Template
	if templateName == "" {
		templateName = meta.Template
	}

	visible := blocks.Project(s.blocks, s.hidden)
	out := s.renderer.Render(visible, render.ContextFromMetadata(meta), render.Options{
		Template:         templateName,
		WithDebugIDs:     true,
		HighlightBlockID: s.selection.BlockID,
	})

	revision := s.revision + 1
	msg, err := NewMessage(MessageUpdatePreview, UpdatePreviewPayload{
		PreviewData: PreviewData{
			Slug:     page.Slug,
			Title:    page.Title,
			Template: templateName,
			Metadata: meta,
		},
		Blocks:           visible,
		PaletteCSS:       meta.Palette.CSSVariables(),
		HighlightBlockID: s.selection.BlockID,
		HiddenBlockIDs:   s.hidden.Sorted(),
		HTML:             string(out.HTML),
		StyleCSS:         string(render.StyleCSS(meta)),
		Revision:         revision,
		Theme:            s.theme.Active,
	})
	if err != nil {
		return Message{}, err
	}
	s.revision = revision
	return msg, nil
}

func (s *Session) dropUpdate(err error) {
	droppedUpdates.WithLabelValues("encode").Inc()
	logger.Warn("Dropped preview update", map[string]interface{}{
		"session": s.key,
		"error":   err.Error(),
	})
}

func (s *Session) send(messageType MessageType, payload interface{}) {
	if len(s.transports) == 0 {
		return
	}
	msg, err := NewMessage(messageType, payload)
	if err != nil {
		s.dropUpdate(err)
		return
	}
	for t := range s.transports {
		s.deliver(t, msg)
	}
}

// deliver sends msg to one surface; a closed surface is detached.
func (s *Session) deliver(t Transport, msg Message) {
	err := t.Send(msg)
	if err == nil {
		messagesTotal.WithLabelValues("out", string(msg.Type)).Inc()
		return
	}
	if errors.Is(err, ErrTransportClosed) {
		delete(s.transports, t)
		droppedUpdates.WithLabelValues("closed").Inc()
		return
	}
	droppedUpdates.WithLabelValues("send").Inc()
	logger.Debug("Preview message not delivered", map[string]interface{}{
		"session": s.key,
		"type":    string(msg.Type),
		"error":   err.Error(),
	})
}

func applyUpdate(block models.Block, req UpdateRequest) models.Block {
	raw := block.ToMap()
	data, _ := raw["data"].(map[string]interface{})
	if req.Replace {
		kept := map[string]interface{}{}
		for _, key := range block.ColumnKeys() {
			kept[key] = data[key]
		}
		data = kept
	}
	for key, value := range req.Data {
		data[key] = value
	}
	raw["data"] = data
	if req.Theme != nil {
		raw["theme"] = string(*req.Theme)
	}

	updated := models.BlockFromMap(raw)
	updated.Hidden = block.Hidden
	return updated
}

// blockAt returns the block at index within the list addressed by loc.
func blockAt(list []models.Block, loc blocks.Location, index int) (models.Block, bool) {
	var (
		found models.Block
		ok    bool
	)
	blocks.Walk(list, func(block models.Block, pos blocks.Position) bool {
		if pos.Location == loc && pos.Index == index {
			found, ok = block, true
			return false
		}
		return true
	})
	return found, ok
}

// mergePages replaces the pages of doc that share a slug with pages and
// appends the rest.
func mergePages(doc models.SiteDocument, pages []models.PageContent) models.SiteDocument {
	merged := doc.Clone()
	for _, page := range pages {
		if index := merged.FindPage(page.Slug); index >= 0 {
			merged.Pages[index] = page
			continue
		}
		merged.Pages = append(merged.Pages, page)
	}
	if merged.Pages == nil {
		merged.Pages = []models.PageContent{}
	}
	return merged
}

func pageKey(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func pageIndex(doc models.SiteDocument, slug string) int {
	if len(doc.Pages) == 0 {
		return -1
	}
	if strings.TrimSpace(slug) == "" {
		return 0
	}
	return doc.FindPage(slug)
}

// Refresh re-renders and pushes the current snapshot, e.g. after a template
// changed on disk.
func (s *Session) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		s.push()
	}
}
