package compiler

// Statement emission (spec.md §4.5/§4.6): walks the typed Stmt tree,
// threading the "current block" the way epos-lang-epos__codegen.go's own
// genStmt does, and enforcing the block-termination policy uniformly at
// the top of emitStmt/emitCompoundStmt — once a block has a terminator, no
// further instruction is ever appended to it, so dead code after a break,
// continue, or return is silently dropped rather than producing invalid
// IR with two terminators.

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"
)

// emitStmt emits one statement starting at cur, returning the block
// execution continues in afterward (the same block for most statement
// kinds; a fresh merge block for if/while/do/for).
func (fb *funcBuilder) emitStmt(cur *ir.Block, s Stmt) (*ir.Block, *CompileError) {
	if cur.Term != nil {
		return cur, nil
	}
	switch x := s.(type) {
	case *CompoundStmt:
		return fb.emitCompoundStmt(cur, x)
	case *DeclStmt:
		return fb.emitDeclStmt(cur, x)
	case *ExprStmt:
		if x.X == nil {
			return cur, nil
		}
		_, cur, err := fb.emitValue(x.X, cur)
		return cur, err
	case *IfStmt:
		return fb.emitIfStmt(x, cur)
	case *WhileStmt:
		return fb.emitWhile(x, cur)
	case *DoWhileStmt:
		return fb.emitDoWhile(x, cur)
	case *ForStmt:
		return fb.emitFor(x, cur)
	case *BreakStmt:
		lt, ok := fb.currentLoop()
		if !ok {
			return cur, errf(KindBreakOutsideLoop, x.Line, "break outside of a loop")
		}
		fb.restoreVLAsAbove(cur, lt.vlaFloor)
		cur.NewBr(lt.breakTarget)
		return cur, nil
	case *ContinueStmt:
		lt, ok := fb.currentLoop()
		if !ok {
			return cur, errf(KindContinueOutsideLoop, x.Line, "continue outside of a loop")
		}
		fb.restoreVLAsAbove(cur, lt.vlaFloor)
		cur.NewBr(lt.continueTarget)
		return cur, nil
	case *ReturnStmt:
		if x.Value == nil {
			fb.restoreVLAsAbove(cur, 0)
			cur.NewRet(nil)
			return cur, nil
		}
		v, cur, err := fb.emitValue(x.Value, cur)
		if err != nil {
			return cur, err
		}
		fb.restoreVLAsAbove(cur, 0)
		cur.NewRet(v)
		return cur, nil
	case *LabeledStmt:
		return fb.emitStmt(cur, x.Stmt)
	}
	return cur, errf(KindBackendError, 0, "emitStmt: unhandled node %T", s)
}

// emitCompoundStmt brackets the block-items in one llvm.stacksave/restore
// pair iff any of them directly declares a VLA (spec.md §4.7: one pair per
// scope, shared by every VLA the scope owns). The mark is pushed onto
// fb.vlas for the duration of the scope so that a break, continue, or
// return anywhere inside it — including inside a nested scope several
// levels down — can restore it immediately via restoreVLAsAbove before
// branching away; the restore below only fires on the one path
// restoreVLAsAbove never sees, falling off the end of the block normally.
func (fb *funcBuilder) emitCompoundStmt(cur *ir.Block, s *CompoundStmt) (*ir.Block, *CompileError) {
	declaresVLA := scopeDeclaresVLA(s.Items)
	var saved value.Value
	if declaresVLA {
		saved = cur.NewCall(fb.e.stacksaveFunc())
		fb.named(saved.(*ir.InstCall))
		fb.vlas = append(fb.vlas, vlaMark{saved: saved})
	}
	for _, item := range s.Items {
		if cur.Term != nil {
			break
		}
		var err *CompileError
		cur, err = fb.emitStmt(cur, item)
		if err != nil {
			return cur, err
		}
	}
	if declaresVLA {
		if cur.Term == nil {
			cur.NewCall(fb.e.stackrestoreFunc(), saved)
		}
		fb.vlas = fb.vlas[:len(fb.vlas)-1]
	}
	return cur, nil
}

func (fb *funcBuilder) emitDeclStmt(cur *ir.Block, x *DeclStmt) (*ir.Block, *CompileError) {
	d := x.Decl
	if isVLAType(d.Type) {
		var err *CompileError
		cur, err = fb.allocVLA(d, cur)
		if err != nil {
			return cur, err
		}
	} else {
		fb.allocLocal(d)
	}
	if d.Init == nil {
		return cur, nil
	}
	v, cur, err := fb.emitValue(d.Init, cur)
	if err != nil {
		return cur, err
	}
	cur.NewStore(v, fb.slots[d].ptr)
	return cur, nil
}

// terminatesAlways reports whether every path through s ends in a return,
// break, or continue, used to decide whether an if-statement needs a join
// block at all (spec.md §4.6: "omit the endif block when both arms always
// terminate").
func terminatesAlways(s Stmt) bool {
	switch x := s.(type) {
	case *ReturnStmt, *BreakStmt, *ContinueStmt:
		return true
	case *CompoundStmt:
		if len(x.Items) == 0 {
			return false
		}
		return terminatesAlways(x.Items[len(x.Items)-1])
	case *IfStmt:
		return x.Else != nil && terminatesAlways(x.Then) && terminatesAlways(x.Else)
	case *LabeledStmt:
		return terminatesAlways(x.Stmt)
	}
	return false
}

// emitIfStmt names its blocks "<cur>.if", "<cur>.else", "<cur>.endif" per
// spec.md §4.6's worked example, and omits the endif block entirely when
// terminatesAlways says neither arm can fall through to it.
func (fb *funcBuilder) emitIfStmt(x *IfStmt, cur *ir.Block) (*ir.Block, *CompileError) {
	cv, cur, err := fb.emitValue(x.Cond, cur)
	if err != nil {
		return cur, err
	}
	cb := fb.toBool(cur, cv, exprType(x.Cond))
	base := cur.Name()

	bothTerminate := x.Else != nil && terminatesAlways(x.Then) && terminatesAlways(x.Else)

	thenBB := fb.fn.NewBlock(fb.label(base + ".if"))
	var elseBB, endBB *ir.Block
	if x.Else != nil {
		elseBB = fb.fn.NewBlock(fb.label(base + ".else"))
	}
	if !bothTerminate {
		endBB = fb.fn.NewBlock(fb.label(base + ".endif"))
	}
	falseTarget := endBB
	if elseBB != nil {
		falseTarget = elseBB
	}
	cur.NewCondBr(cb, thenBB, falseTarget)

	thenEnd, err := fb.emitStmt(thenBB, x.Then)
	if err != nil {
		return thenEnd, err
	}
	if thenEnd.Term == nil && endBB != nil {
		thenEnd.NewBr(endBB)
	}

	if elseBB == nil {
		return endBB, nil
	}
	elseEnd, err := fb.emitStmt(elseBB, x.Else)
	if err != nil {
		return elseEnd, err
	}
	if elseEnd.Term == nil && endBB != nil {
		elseEnd.NewBr(endBB)
	}
	if endBB == nil {
		return elseEnd, nil
	}
	return endBB, nil
}

func (fb *funcBuilder) emitWhile(x *WhileStmt, cur *ir.Block) (*ir.Block, *CompileError) {
	condBB := fb.fn.NewBlock(fb.label("whilecond"))
	bodyBB := fb.fn.NewBlock(fb.label("whilebody"))
	endBB := fb.fn.NewBlock(fb.label("whileend"))
	cur.NewBr(condBB)

	cv, condEnd, err := fb.emitValue(x.Cond, condBB)
	if err != nil {
		return condEnd, err
	}
	cb := fb.toBool(condEnd, cv, exprType(x.Cond))
	condEnd.NewCondBr(cb, bodyBB, endBB)

	fb.pushLoop(condBB, endBB)
	bodyEnd, err := fb.emitStmt(bodyBB, x.Body)
	fb.popLoop()
	if err != nil {
		return bodyEnd, err
	}
	if bodyEnd.Term == nil {
		bodyEnd.NewBr(condBB)
	}
	return endBB, nil
}

func (fb *funcBuilder) emitDoWhile(x *DoWhileStmt, cur *ir.Block) (*ir.Block, *CompileError) {
	bodyBB := fb.fn.NewBlock(fb.label("dobody"))
	condBB := fb.fn.NewBlock(fb.label("docond"))
	endBB := fb.fn.NewBlock(fb.label("doend"))
	cur.NewBr(bodyBB)

	fb.pushLoop(condBB, endBB)
	bodyEnd, err := fb.emitStmt(bodyBB, x.Body)
	fb.popLoop()
	if err != nil {
		return bodyEnd, err
	}
	if bodyEnd.Term == nil {
		bodyEnd.NewBr(condBB)
	}

	cv, condEnd, err := fb.emitValue(x.Cond, condBB)
	if err != nil {
		return condEnd, err
	}
	cb := fb.toBool(condEnd, cv, exprType(x.Cond))
	condEnd.NewCondBr(cb, bodyBB, endBB)
	return endBB, nil
}

// forInitDeclaresVLA mirrors scopeDeclaresVLA for a for-loop's init clause,
// which lowerForStatement (lower_stmt.go) represents as a bare *DeclStmt
// for one declarator or a *CompoundStmt grouping several.
func forInitDeclaresVLA(init Stmt) bool {
	switch x := init.(type) {
	case *DeclStmt:
		return isVLAType(x.Decl.Type)
	case *CompoundStmt:
		return scopeDeclaresVLA(x.Items)
	}
	return false
}

// emitFor names its blocks "forcond"/"forbody"/"forend" (and "forpost"
// when a post-expression is present) per spec.md §4.6. continue targets
// the post-expression block when there is one, so a post-expression always
// runs before the condition is re-tested even on a continue.
func (fb *funcBuilder) emitFor(x *ForStmt, cur *ir.Block) (*ir.Block, *CompileError) {
	declaresVLA := forInitDeclaresVLA(x.Init)
	var saved value.Value
	if declaresVLA {
		saved = cur.NewCall(fb.e.stacksaveFunc())
		fb.named(saved.(*ir.InstCall))
		fb.vlas = append(fb.vlas, vlaMark{saved: saved})
	}

	// A multi-declarator init's *CompoundStmt shares the loop's scope, so its
	// items are emitted here directly rather than as a nested block with a
	// save/restore pair of its own.
	initItems := []Stmt{x.Init}
	if group, ok := x.Init.(*CompoundStmt); ok {
		initItems = group.Items
	}
	for _, item := range initItems {
		if item == nil {
			continue
		}
		var err *CompileError
		cur, err = fb.emitStmt(cur, item)
		if err != nil {
			return cur, err
		}
	}

	condBB := fb.fn.NewBlock(fb.label("forcond"))
	bodyBB := fb.fn.NewBlock(fb.label("forbody"))
	endBB := fb.fn.NewBlock(fb.label("forend"))
	cur.NewBr(condBB)

	var cb value.Value
	condEnd := condBB
	if x.Cond != nil {
		var cv value.Value
		var err *CompileError
		cv, condEnd, err = fb.emitValue(x.Cond, condBB)
		if err != nil {
			return condEnd, err
		}
		cb = fb.toBool(condEnd, cv, exprType(x.Cond))
	} else {
		cb = constant.NewBool(true)
	}
	condEnd.NewCondBr(cb, bodyBB, endBB)

	contTarget := condBB
	var postBB *ir.Block
	if x.Post != nil {
		postBB = fb.fn.NewBlock(fb.label("forpost"))
		contTarget = postBB
	}

	fb.pushLoop(contTarget, endBB)
	bodyEnd, err := fb.emitStmt(bodyBB, x.Body)
	fb.popLoop()
	if err != nil {
		return bodyEnd, err
	}
	if bodyEnd.Term == nil {
		bodyEnd.NewBr(contTarget)
	}

	if x.Post != nil {
		postEnd, err := fb.emitStmt(postBB, x.Post)
		if err != nil {
			return postEnd, err
		}
		if postEnd.Term == nil {
			postEnd.NewBr(condBB)
		}
	}

	if declaresVLA {
		fb.vlas = fb.vlas[:len(fb.vlas)-1]
		endBB.NewCall(fb.e.stackrestoreFunc(), saved)
	}
	return endBB, nil
}
