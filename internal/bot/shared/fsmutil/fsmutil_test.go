package fsmutil

import "testing"

func TestPending(t *testing.T) {
	const chat = 100
	if !SetPending(chat, "export") {
		t.Fatal("первый запуск должен пройти")
	}
	if SetPending(chat, "approve_all") {
		t.Fatal("второе действие в том же чате должно отклоняться")
	}
	ClearPending(chat, "approve_all")
	if SetPending(chat, "export") {
		t.Fatal("чужой ключ не снимает флаг")
	}
	ClearPending(chat, "export")
	if !SetPending(chat, "export") {
		t.Fatal("после снятия флага запуск снова доступен")
	}
	ClearPending(chat, "export")
}

func TestStore(t *testing.T) {
	type state struct{ Step int }
	s := NewStore[state]()
	if s.Get(1) != nil {
		t.Fatal("пустое хранилище")
	}
	s.Set(1, &state{Step: 2})
	s.Get(1).Step = 3
	if s.Get(1).Step != 3 || s.Get(2) != nil {
		t.Fatal("состояние должно храниться по чату")
	}
	s.Delete(1)
	if s.Get(1) != nil {
		t.Fatal("после Delete состояния нет")
	}
}

func TestIsCancelText(t *testing.T) {
	for _, s := range []string{"Отмена", " /cancel ", "CANCEL"} {
		if !IsCancelText(s) {
			t.Fatalf("%q должно отменять", s)
		}
	}
	if IsCancelText("+3 Helped") {
		t.Fatal("обычный ввод не отмена")
	}
}
