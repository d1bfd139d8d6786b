package youtube

import "fmt"

func centerScript(selector string) string {
	return fmt.Sprintf(`(() => {
  const el = document.querySelector(%q);
  if (el) el.scrollIntoView({block: 'center'});
  return !!el;
})()`, selector)
}

// gentleScript brings the last loaded comment into view and nudges past it,
// staying inside the comment region.
func gentleScript(thread string, delta int) string {
	return fmt.Sprintf(`(() => {
  const threads = document.querySelectorAll(%q);
  if (threads.length) threads[threads.length - 1].scrollIntoView({block: 'center'});
  window.scrollBy(0, %d);
  return threads.length;
})()`, thread, delta)
}

// aggressiveScript also clicks a visible continuation and wiggles the
// viewport, which retriggers the intersection observer behind lazy loading.
func aggressiveScript(thread, continuation string, delta int) string {
	return fmt.Sprintf(`(() => {
  const threads = document.querySelectorAll(%q);
  if (threads.length) threads[threads.length - 1].scrollIntoView({block: 'end'});
  let clicked = false;
  for (const el of document.querySelectorAll(%q)) {
    if (el.offsetParent !== null) {
      el.scrollIntoView({block: 'center'});
      el.click();
      clicked = true;
      break;
    }
  }
  window.scrollBy(0, -500);
  window.scrollBy(0, %d);
  return clicked;
})()`, thread, continuation, delta)
}
